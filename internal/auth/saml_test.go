package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crewjam/saml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAttrs = AttributeNames{Email: "email", FirstName: "first_name", LastName: "last_name"}

func attr(name, friendly, value string) saml.Attribute {
	return saml.Attribute{
		Name:         name,
		FriendlyName: friendly,
		Values:       []saml.AttributeValue{{Value: value}},
	}
}

func TestIdentityFromAssertion(t *testing.T) {
	tests := []struct {
		name      string
		assertion *saml.Assertion
		want      Identity
		wantErr   error
	}{
		{
			name: "attributes by name",
			assertion: &saml.Assertion{
				AttributeStatements: []saml.AttributeStatement{{
					Attributes: []saml.Attribute{
						attr("email", "", "a@b.com"),
						attr("first_name", "", "Ann"),
						attr("last_name", "", " Lee "),
					},
				}},
			},
			want: Identity{Email: "a@b.com", FirstName: "Ann", LastName: "Lee"},
		},
		{
			name: "attributes by friendly name",
			assertion: &saml.Assertion{
				AttributeStatements: []saml.AttributeStatement{{
					Attributes: []saml.Attribute{
						attr("urn:oid:0.9.2342.19200300.100.1.3", "email", "a@b.com"),
						attr("urn:oid:2.5.4.42", "first_name", "Ann"),
					},
				}},
			},
			want: Identity{Email: "a@b.com", FirstName: "Ann"},
		},
		{
			name: "name id stands in for email",
			assertion: &saml.Assertion{
				Subject: &saml.Subject{NameID: &saml.NameID{Value: "a@b.com"}},
			},
			want: Identity{Email: "a@b.com"},
		},
		{
			name: "opaque name id is not an email",
			assertion: &saml.Assertion{
				Subject: &saml.Subject{NameID: &saml.NameID{Value: "_a81f0c"}},
			},
			wantErr: ErrMissingEmail,
		},
		{
			name: "attribute without values is skipped",
			assertion: &saml.Assertion{
				AttributeStatements: []saml.AttributeStatement{{
					Attributes: []saml.Attribute{{Name: "email"}},
				}},
			},
			wantErr: ErrMissingEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := identityFromAssertion(tt.assertion, testAttrs)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

const idpMetadata = `<EntityDescriptor xmlns="urn:oasis:names:tc:SAML:2.0:metadata" entityID="https://idp.example.edu/metadata">
  <IDPSSODescriptor protocolSupportEnumeration="urn:oasis:names:tc:SAML:2.0:protocol">
    <SingleSignOnService Binding="urn:oasis:names:tc:SAML:2.0:bindings:HTTP-Redirect" Location="https://idp.example.edu/sso"/>
  </IDPSSODescriptor>
</EntityDescriptor>`

// writeKeyPair writes a throwaway self-signed certificate and key.
func writeKeyPair(t *testing.T, dir string) (certFile, keyFile string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "generating key")
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "library.example.edu"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err, "creating certificate")

	certFile = filepath.Join(dir, "sp.crt")
	keyFile = filepath.Join(dir, "sp.key")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o600))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0o600))
	return certFile, keyFile
}

func newTestSP(t *testing.T) *ServiceProvider {
	t.Helper()
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir)
	mdFile := filepath.Join(dir, "idp.xml")
	require.NoError(t, os.WriteFile(mdFile, []byte(idpMetadata), 0o600))

	sp, err := NewServiceProvider(context.Background(), SPConfig{
		RootURL:         "https://library.example.edu",
		CertFile:        certFile,
		KeyFile:         keyFile,
		IDPMetadataFile: mdFile,
		Attributes:      testAttrs,
	})
	require.NoError(t, err)
	return sp
}

func TestServiceProviderMetadata(t *testing.T) {
	sp := newTestSP(t)

	rec := httptest.NewRecorder()
	sp.ServeMetadata(rec, httptest.NewRequest(http.MethodGet, "/saml/metadata", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://library.example.edu/saml/acs", "metadata advertises the ACS URL")
}

func TestServiceProviderStartLogin(t *testing.T) {
	sp := newTestSP(t)

	rec := httptest.NewRecorder()
	sp.StartLogin(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	loc := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, "https://idp.example.edu/sso?"), "Location = %q, want redirect to IdP", loc)
}

func TestNewServiceProviderMissingKeyPair(t *testing.T) {
	_, err := NewServiceProvider(context.Background(), SPConfig{
		RootURL:  "https://library.example.edu",
		CertFile: filepath.Join(t.TempDir(), "missing.crt"),
		KeyFile:  filepath.Join(t.TempDir(), "missing.key"),
	})
	assert.Error(t, err, "want key pair error")
}
