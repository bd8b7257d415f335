package canon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalSortsKeysAtEveryLevel(t *testing.T) {
	a := map[string]any{"b": 2, "a": map[string]any{"z": 1, "y": 2}}
	out, err := Marshal(a)
	require.NoError(t, err)
	require.Equal(t, `{"a":{"y":2,"z":1},"b":2}`, string(out))
}

func TestMarshalIsOrderInsensitive(t *testing.T) {
	m1 := map[string]any{"a": 1, "b": 2}
	m2 := map[string]any{"b": 2, "a": 1}

	out1, err := Marshal(m1)
	require.NoError(t, err)
	out2, err := Marshal(m2)
	require.NoError(t, err)
	require.Equal(t, out1, out2)
}

func TestMarshalRejectsFloat(t *testing.T) {
	_, err := Marshal(map[string]any{"x": 1.5})
	require.Error(t, err)
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
}

func TestMarshalRejectsNestedFloat(t *testing.T) {
	_, err := Marshal(map[string]any{"a": []any{1, 2, map[string]any{"b": 3.14}}})
	require.Error(t, err)
}

func TestMarshalAllowsIntegers(t *testing.T) {
	out, err := Marshal(map[string]any{"x": 42})
	require.NoError(t, err)
	require.Equal(t, `{"x":42}`, string(out))
}

func TestMarshalOmitsNilFieldsOnlyWhenAbsentFromMap(t *testing.T) {
	out, err := Marshal(map[string]any{"a": nil})
	require.NoError(t, err)
	require.Equal(t, `{"a":null}`, string(out))
}

func TestDigestIsStableAcrossKeyPermutation(t *testing.T) {
	d1, err := Digest(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	d2, err := Digest(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	require.Equal(t, d1, d2)
	require.Len(t, d1, 64)
}

func TestCanonicalizeJSONRejectsMalformedInput(t *testing.T) {
	_, err := CanonicalizeJSON([]byte(`{not json`))
	require.Error(t, err)
}

func TestDigestBytesIsSHA256(t *testing.T) {
	// SHA-256("") = e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", DigestBytes(nil))
}
