package validation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"address-gateway/middleware/apierror"
	"address-gateway/middleware/ratelimit/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "http://example/convert", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func requireKind(t *testing.T, err error, kind apierror.Kind) *apierror.Error {
	t.Helper()
	require.Error(t, err)
	e := apierror.As(err)
	require.Equal(t, kind, e.Kind, "unexpected error: %v", err)
	return e
}

func batchBody(t *testing.T, n int) string {
	t.Helper()
	items := make([]string, n)
	for i := range items {
		items[i] = "qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a"
	}
	b, err := json.Marshal(map[string]any{"addresses": items})
	require.NoError(t, err)
	return string(b)
}

func TestValidate_ConvertHappyPath(t *testing.T) {
	v := New(nil)
	req, err := v.Validate(newJSONRequest(`{"address":"  1BpEi6DfDAUFd7GtittLSdBeYJvcoaVggu "}`), domain.EndpointConvert)
	require.NoError(t, err)
	assert.Equal(t, domain.EndpointConvert, req.Endpoint())
	assert.Equal(t, "1BpEi6DfDAUFd7GtittLSdBeYJvcoaVggu", req.Address())
	assert.Equal(t, 1, req.Len())
}

func TestValidate_ContentType(t *testing.T) {
	v := New(nil)

	for _, ct := range []string{"application/json", "application/json; charset=utf-8", "application/vnd.api+json"} {
		r := newJSONRequest(`{"address":"x"}`)
		r.Header.Set("Content-Type", ct)
		_, err := v.Validate(r, domain.EndpointConvert)
		assert.NoError(t, err, ct)
	}

	for _, ct := range []string{"", "text/plain", "application/x-www-form-urlencoded"} {
		r := newJSONRequest(`{"address":"x"}`)
		r.Header.Set("Content-Type", ct)
		_, err := v.Validate(r, domain.EndpointConvert)
		e := requireKind(t, err, apierror.KindUnsupportedMediaType)
		assert.Equal(t, http.StatusBadRequest, e.Status())
	}
}

func TestValidate_ContentTypeCheckedBeforeSize(t *testing.T) {
	v := New(nil)
	r := newJSONRequest(strings.Repeat("x", MaxConvertBodyBytes+10))
	r.Header.Set("Content-Type", "text/plain")
	_, err := v.Validate(r, domain.EndpointConvert)
	requireKind(t, err, apierror.KindUnsupportedMediaType)
}

func TestValidate_SizeCheckedBeforeParsing(t *testing.T) {
	v := New(nil)

	valid := `{"address":"1BpEi6DfDAUFd7GtittLSdBeYJvcoaVggu"}`
	exact := valid + strings.Repeat(" ", MaxConvertBodyBytes-len(valid))
	req, err := v.Validate(newJSONRequest(exact), domain.EndpointConvert)
	require.NoError(t, err)
	assert.Equal(t, "1BpEi6DfDAUFd7GtittLSdBeYJvcoaVggu", req.Address())

	malformed := strings.Repeat("{", MaxConvertBodyBytes+1)

	r := newJSONRequest(malformed)
	require.Equal(t, int64(MaxConvertBodyBytes+1), r.ContentLength)
	_, err = v.Validate(r, domain.EndpointConvert)
	requireKind(t, err, apierror.KindPayloadTooLarge)

	r = newJSONRequest(malformed)
	r.ContentLength = -1
	_, err = v.Validate(r, domain.EndpointConvert)
	requireKind(t, err, apierror.KindPayloadTooLarge)
}

func TestReadBody_ExactLimitAccepted(t *testing.T) {
	data := bytes.Repeat([]byte("a"), MaxConvertBodyBytes)
	got, err := ReadBody(bytes.NewReader(data), -1, MaxConvertBodyBytes)
	require.NoError(t, err)
	assert.Len(t, got, MaxConvertBodyBytes)

	_, err = ReadBody(bytes.NewReader(append(data, 'a')), -1, MaxConvertBodyBytes)
	e := requireKind(t, err, apierror.KindPayloadTooLarge)
	assert.Equal(t, "Request body too large. Maximum size is 1MB", e.Message)
}

func TestReadBody_DeclaredLengthRejectedUpFront(t *testing.T) {
	_, err := ReadBody(strings.NewReader("{}"), MaxBatchBodyBytes+1, MaxBatchBodyBytes)
	e := requireKind(t, err, apierror.KindPayloadTooLarge)
	assert.Equal(t, "Request body too large. Maximum size is 10MB", e.Message)
}

func TestParse_Syntax(t *testing.T) {
	rules := DefaultRules()[domain.EndpointConvert]

	_, err := Parse([]byte(`{"address":`), domain.EndpointConvert, rules)
	e := requireKind(t, err, apierror.KindMalformedBody)
	assert.Equal(t, "Invalid JSON in request body", e.Message)

	for _, body := range []string{`[]`, `"x"`, `42`, `null`} {
		_, err := Parse([]byte(body), domain.EndpointConvert, rules)
		e := requireKind(t, err, apierror.KindMalformedBody)
		assert.Equal(t, "Request body must be a JSON object", e.Message, body)
	}
}

func TestParse_ConvertStructure(t *testing.T) {
	rules := DefaultRules()[domain.EndpointConvert]
	cases := map[string]string{
		`{}`:                            "Address parameter is required",
		`{"address":null}`:              "Address parameter is required",
		`{"address":42}`:                "Address must be a string",
		`{"address":"   "}`:             "Address cannot be empty",
		`{"address":"<img src=x>"}`:     "Invalid address format",
		`{"address":"javascript:void"}`: "Invalid address format",
	}
	for body, msg := range cases {
		_, err := Parse([]byte(body), domain.EndpointConvert, rules)
		e := requireKind(t, err, apierror.KindSchemaViolation)
		assert.Equal(t, msg, e.Message, body)
		assert.Equal(t, "address", e.Field)
	}
}

func TestParse_BatchStructure(t *testing.T) {
	rules := DefaultRules()[domain.EndpointBatch]
	cases := map[string]string{
		`{}`:                  "Addresses array is required",
		`{"addresses":null}`:  "Addresses array is required",
		`{"addresses":"abc"}`: "Addresses array is required",
		`{"addresses":[]}`:    "Addresses array cannot be empty",
	}
	for body, msg := range cases {
		_, err := Parse([]byte(body), domain.EndpointBatch, rules)
		e := requireKind(t, err, apierror.KindSchemaViolation)
		assert.Equal(t, msg, e.Message, body)
		assert.Nil(t, e.Index)
	}
}

func TestParse_BatchElementErrorsCarryIndex(t *testing.T) {
	rules := DefaultRules()[domain.EndpointBatch]

	_, err := Parse([]byte(`{"addresses":["a", 7]}`), domain.EndpointBatch, rules)
	e := requireKind(t, err, apierror.KindSchemaViolation)
	assert.Equal(t, "Address at index 1 must be a string", e.Message)
	require.NotNil(t, e.Index)
	assert.Equal(t, 1, *e.Index)

	_, err = Parse([]byte(`{"addresses":[null]}`), domain.EndpointBatch, rules)
	e = requireKind(t, err, apierror.KindSchemaViolation)
	assert.Equal(t, "Address at index 0 must be a string", e.Message)

	_, err = Parse([]byte(`{"addresses":["ok","ok",""]}`), domain.EndpointBatch, rules)
	e = requireKind(t, err, apierror.KindSchemaViolation)
	assert.Equal(t, "Invalid address at index 2: Address cannot be empty", e.Message)
	assert.Equal(t, 2, *e.Index)
}

func TestParse_BatchSizeBoundary(t *testing.T) {
	rules := DefaultRules()[domain.EndpointBatch]

	req, err := Parse([]byte(batchBody(t, MaxBatchItems)), domain.EndpointBatch, rules)
	require.NoError(t, err)
	assert.Equal(t, MaxBatchItems, req.Len())

	_, err = Parse([]byte(batchBody(t, MaxBatchItems+1)), domain.EndpointBatch, rules)
	e := requireKind(t, err, apierror.KindSchemaViolation)
	assert.Equal(t, "Batch size exceeds maximum of 10000 addresses", e.Message)
}

func TestRequest_AddressesIsACopy(t *testing.T) {
	rules := DefaultRules()[domain.EndpointBatch]
	req, err := Parse([]byte(`{"addresses":[" a ","b"]}`), domain.EndpointBatch, rules)
	require.NoError(t, err)

	got := req.Addresses()
	assert.Equal(t, []string{"a", "b"}, got)
	got[0] = "mutated"
	assert.Equal(t, "a", req.At(0))
}
