package main

import "github.com/accord-protocol/solverd/internal/exitcode"

const (
	exitOK               = exitcode.OK
	exitOther            = exitcode.Other
	exitPolicyRefusal    = exitcode.PolicyRefusal
	exitExecutionFailure = exitcode.ExecutionFailure
)
