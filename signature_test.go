package photoblog_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sagarc03/photoblog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(keys map[string]string) func(string) (string, bool) {
	return func(accessKey string) (string, bool) {
		secret, ok := keys[accessKey]
		return secret, ok
	}
}

func TestSignatureVerifier_Verify(t *testing.T) {
	verifier := photoblog.NewSignatureVerifier("us-east-1", "s3", lookup(map[string]string{
		"AKIATEST": "testsecret",
	}))

	validTime := time.Now().UTC().Add(-30 * time.Minute)
	validDateStamp := validTime.Format(photoblog.DateFormat)
	validAmzDate := validTime.Format(photoblog.DateTimeFormat)

	oldTime := time.Now().UTC().Add(-2 * time.Hour)
	oldDateStamp := oldTime.Format(photoblog.DateFormat)
	oldAmzDate := oldTime.Format(photoblog.DateTimeFormat)

	base := func(overrides map[string]string) url.Values {
		q := url.Values{
			"X-Amz-Algorithm":     []string{"AWS4-HMAC-SHA256"},
			"X-Amz-Credential":    []string{fmt.Sprintf("AKIATEST/%s/us-east-1/s3/aws4_request", validDateStamp)},
			"X-Amz-Date":          []string{validAmzDate},
			"X-Amz-Expires":       []string{"3600"},
			"X-Amz-SignedHeaders": []string{"host"},
			"X-Amz-Signature":     []string{"abc123"},
		}
		for k, v := range overrides {
			if v == "" {
				q.Del(k)
				continue
			}
			q.Set(k, v)
		}
		return q
	}

	tests := []struct {
		name      string
		query     url.Values
		wantError string
	}{
		{name: "empty query", query: url.Values{}, wantError: "missing required signature parameters"},
		{name: "missing algorithm", query: base(map[string]string{"X-Amz-Algorithm": ""}), wantError: "missing required signature parameters"},
		{name: "invalid algorithm", query: base(map[string]string{"X-Amz-Algorithm": "AWS4-HMAC-SHA1"}), wantError: "invalid algorithm"},
		{name: "invalid date format", query: base(map[string]string{"X-Amz-Date": "invalid-date"}), wantError: "invalid X-Amz-Date format"},
		{name: "expires zero", query: base(map[string]string{"X-Amz-Expires": "0"}), wantError: "invalid X-Amz-Expires"},
		{name: "expires not a number", query: base(map[string]string{"X-Amz-Expires": "soon"}), wantError: "invalid X-Amz-Expires"},
		{name: "expires too large", query: base(map[string]string{"X-Amz-Expires": "604801"}), wantError: "invalid X-Amz-Expires"},
		{
			name: "expired signature",
			query: base(map[string]string{
				"X-Amz-Credential": fmt.Sprintf("AKIATEST/%s/us-east-1/s3/aws4_request", oldDateStamp),
				"X-Amz-Date":       oldAmzDate,
			}),
			wantError: "signature expired",
		},
		{name: "invalid credential format", query: base(map[string]string{"X-Amz-Credential": "AKIATEST/invalid"}), wantError: "invalid X-Amz-Credential format"},
		{
			name:      "invalid terminator",
			query:     base(map[string]string{"X-Amz-Credential": fmt.Sprintf("AKIATEST/%s/us-east-1/s3/wrong", validDateStamp)}),
			wantError: "invalid credential terminator",
		},
		{
			name:      "region mismatch",
			query:     base(map[string]string{"X-Amz-Credential": fmt.Sprintf("AKIATEST/%s/us-west-2/s3/aws4_request", validDateStamp)}),
			wantError: "region mismatch",
		},
		{
			name:      "service mismatch",
			query:     base(map[string]string{"X-Amz-Credential": fmt.Sprintf("AKIATEST/%s/us-east-1/ec2/aws4_request", validDateStamp)}),
			wantError: "service mismatch",
		},
		{
			name:      "credential date mismatch",
			query:     base(map[string]string{"X-Amz-Credential": "AKIATEST/20200101/us-east-1/s3/aws4_request"}),
			wantError: "credential date mismatch",
		},
		{
			name:      "invalid access key",
			query:     base(map[string]string{"X-Amz-Credential": fmt.Sprintf("WRONGKEY/%s/us-east-1/s3/aws4_request", validDateStamp)}),
			wantError: "invalid access key",
		},
		{name: "signature mismatch", query: base(nil), wantError: "signature mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			headers.Set("Host", "localhost:5708")

			err := verifier.Verify(http.MethodGet, "/objects/photos/a.jpg", tt.query, headers)
			require.Error(t, err)
			assert.ErrorIs(t, err, photoblog.ErrUnauthorized)
			assert.Contains(t, err.Error(), tt.wantError)
		})
	}
}

func TestSigner_Presign(t *testing.T) {
	signer := photoblog.NewSigner("AKIATEST", "testsecret", "us-east-1", "s3")
	verifier := photoblog.NewSignatureVerifier("us-east-1", "s3", lookup(map[string]string{
		"AKIATEST": "testsecret",
	}))

	t.Run("success round trip", func(t *testing.T) {
		u, err := url.Parse("http://localhost:5708/objects/photos/a.jpg")
		require.NoError(t, err)

		signed, err := signer.Presign(http.MethodPut, u, 5*time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, signed, nil)
		assert.NoError(t, verifier.VerifyRequest(req))

		parsed, err := url.Parse(signed)
		require.NoError(t, err)
		assert.Equal(t, "300", parsed.Query().Get("X-Amz-Expires"))
		assert.Equal(t, "host", parsed.Query().Get("X-Amz-SignedHeaders"))
	})

	t.Run("error wrong method", func(t *testing.T) {
		u, err := url.Parse("http://localhost:5708/objects/photos/a.jpg")
		require.NoError(t, err)

		signed, err := signer.Presign(http.MethodGet, u, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, signed, nil)
		assert.ErrorIs(t, verifier.VerifyRequest(req), photoblog.ErrUnauthorized)
	})

	t.Run("error different key", func(t *testing.T) {
		u, err := url.Parse("http://localhost:5708/objects/photos/a.jpg")
		require.NoError(t, err)

		signed, err := signer.Presign(http.MethodGet, u, time.Hour)
		require.NoError(t, err)

		parsed, err := url.Parse(signed)
		require.NoError(t, err)
		parsed.Path = "/objects/photos/b.jpg"

		req := httptest.NewRequest(http.MethodGet, parsed.String(), nil)
		assert.ErrorIs(t, verifier.VerifyRequest(req), photoblog.ErrUnauthorized)
	})

	t.Run("error expired", func(t *testing.T) {
		past := photoblog.NewSigner("AKIATEST", "testsecret", "us-east-1", "s3")
		past.Now = func() time.Time { return time.Now().Add(-10 * time.Minute) }

		u, err := url.Parse("http://localhost:5708/objects/photos/a.jpg")
		require.NoError(t, err)

		signed, err := past.Presign(http.MethodGet, u, 5*time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, signed, nil)
		err = verifier.VerifyRequest(req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "signature expired")
	})

	t.Run("error ttl out of range", func(t *testing.T) {
		u, err := url.Parse("http://localhost:5708/objects/photos/a.jpg")
		require.NoError(t, err)

		_, err = signer.Presign(http.MethodGet, u, 0)
		assert.Error(t, err)

		_, err = signer.Presign(http.MethodGet, u, 8*24*time.Hour)
		assert.Error(t, err)
	})

	t.Run("error missing host", func(t *testing.T) {
		_, err := signer.Presign(http.MethodGet, &url.URL{Path: "/objects/a.jpg"}, time.Minute)
		assert.Error(t, err)
	})
}

func TestSigner_PresignHeaders(t *testing.T) {
	signer := photoblog.NewSigner("AKIATEST", "testsecret", "us-east-1", "s3")
	verifier := photoblog.NewSignatureVerifier("us-east-1", "s3", lookup(map[string]string{
		"AKIATEST": "testsecret",
	}))

	u, err := url.Parse("http://localhost:5708/objects/photos/a.jpg")
	require.NoError(t, err)

	signed, err := signer.PresignHeaders(http.MethodPut, u, 5*time.Minute, http.Header{
		"Content-Type": {"image/jpeg"},
	})
	require.NoError(t, err)

	parsed, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "content-type;host", parsed.Query().Get("X-Amz-SignedHeaders"))

	tests := []struct {
		name        string
		contentType string
		wantErr     bool
	}{
		{name: "success matching content type", contentType: "image/jpeg"},
		{name: "error other content type", contentType: "text/html", wantErr: true},
		{name: "error missing content type", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, signed, nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			err := verifier.VerifyRequest(req)
			if tt.wantErr {
				assert.ErrorIs(t, err, photoblog.ErrUnauthorized)
				return
			}
			assert.NoError(t, err)
		})
	}
}
