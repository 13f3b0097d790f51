package auth

import (
	"context"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/crewjam/saml"
	"github.com/crewjam/saml/samlsp"
)

// ErrMissingEmail is returned when an assertion carries no usable email.
var ErrMissingEmail = errors.New("assertion has no email attribute")

// Identity is what a verified assertion says about the person signing in.
type Identity struct {
	Email     string
	FirstName string
	LastName  string
}

// AttributeNames are the assertion attributes holding each identity field.
// Each is matched against an attribute's Name or FriendlyName.
type AttributeNames struct {
	Email     string
	FirstName string
	LastName  string
}

// SPConfig configures the SAML service provider.
type SPConfig struct {
	RootURL         string
	CertFile        string
	KeyFile         string
	IDPMetadataURL  string
	IDPMetadataFile string
	Attributes      AttributeNames
	HTTPClient      *http.Client
}

// ServiceProvider is the application's side of SAML single sign-on.
type ServiceProvider struct {
	mw    *samlsp.Middleware
	attrs AttributeNames
}

// NewServiceProvider loads the key pair and IdP metadata and builds the service provider.
func NewServiceProvider(ctx context.Context, cfg SPConfig) (*ServiceProvider, error) {
	keyPair, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("loading SAML key pair: %w", err)
	}
	cert, err := x509.ParseCertificate(keyPair.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("parsing SAML certificate: %w", err)
	}
	key, ok := keyPair.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("SAML key must be RSA")
	}

	rootURL, err := url.Parse(cfg.RootURL)
	if err != nil {
		return nil, fmt.Errorf("parsing root URL: %w", err)
	}

	md, err := loadIDPMetadata(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mw, err := samlsp.New(samlsp.Options{
		URL:               *rootURL,
		Key:               key,
		Certificate:       cert,
		IDPMetadata:       md,
		AllowIDPInitiated: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating SAML service provider: %w", err)
	}

	return &ServiceProvider{mw: mw, attrs: cfg.Attributes}, nil
}

func loadIDPMetadata(ctx context.Context, cfg SPConfig) (*saml.EntityDescriptor, error) {
	if cfg.IDPMetadataURL != "" {
		u, err := url.Parse(cfg.IDPMetadataURL)
		if err != nil {
			return nil, fmt.Errorf("parsing IdP metadata URL: %w", err)
		}
		client := cfg.HTTPClient
		if client == nil {
			client = http.DefaultClient
		}
		md, err := samlsp.FetchMetadata(ctx, client, *u)
		if err != nil {
			return nil, fmt.Errorf("fetching IdP metadata: %w", err)
		}
		return md, nil
	}

	data, err := os.ReadFile(cfg.IDPMetadataFile)
	if err != nil {
		return nil, fmt.Errorf("reading IdP metadata: %w", err)
	}
	md, err := samlsp.ParseMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("parsing IdP metadata: %w", err)
	}
	return md, nil
}

// ServeMetadata writes the service provider's metadata XML.
func (sp *ServiceProvider) ServeMetadata(w http.ResponseWriter, r *http.Request) {
	sp.mw.ServeMetadata(w, r)
}

// StartLogin redirects the browser to the IdP.
func (sp *ServiceProvider) StartLogin(w http.ResponseWriter, r *http.Request) {
	sp.mw.HandleStartAuthFlow(w, r)
}

// Identity validates the assertion posted to the assertion consumer service.
func (sp *ServiceProvider) Identity(w http.ResponseWriter, r *http.Request) (Identity, error) {
	if err := r.ParseForm(); err != nil {
		return Identity{}, fmt.Errorf("parsing ACS form: %w", err)
	}

	var possibleRequestIDs []string
	if sp.mw.ServiceProvider.AllowIDPInitiated {
		possibleRequestIDs = append(possibleRequestIDs, "")
	}
	for _, tr := range sp.mw.RequestTracker.GetTrackedRequests(r) {
		possibleRequestIDs = append(possibleRequestIDs, tr.SAMLRequestID)
	}

	assertion, err := sp.mw.ServiceProvider.ParseResponse(r, possibleRequestIDs)
	if err != nil {
		var invalid *saml.InvalidResponseError
		if errors.As(err, &invalid) {
			return Identity{}, fmt.Errorf("invalid SAML response: %w", invalid.PrivateErr)
		}
		return Identity{}, fmt.Errorf("parsing SAML response: %w", err)
	}

	if relay := r.Form.Get("RelayState"); relay != "" {
		if err := sp.mw.RequestTracker.StopTrackingRequest(w, r, relay); err != nil {
			return Identity{}, fmt.Errorf("clearing tracked request: %w", err)
		}
	}

	return identityFromAssertion(assertion, sp.attrs)
}

// identityFromAssertion extracts the configured attributes. The subject's
// NameID stands in for a missing email attribute when it looks like an address.
func identityFromAssertion(a *saml.Assertion, names AttributeNames) (Identity, error) {
	var id Identity
	for _, stmt := range a.AttributeStatements {
		for _, attr := range stmt.Attributes {
			if len(attr.Values) == 0 {
				continue
			}
			value := strings.TrimSpace(attr.Values[0].Value)
			switch {
			case matches(attr, names.Email):
				id.Email = value
			case matches(attr, names.FirstName):
				id.FirstName = value
			case matches(attr, names.LastName):
				id.LastName = value
			}
		}
	}

	if id.Email == "" && a.Subject != nil && a.Subject.NameID != nil &&
		strings.Contains(a.Subject.NameID.Value, "@") {
		id.Email = strings.TrimSpace(a.Subject.NameID.Value)
	}
	if id.Email == "" {
		return Identity{}, ErrMissingEmail
	}
	return id, nil
}

func matches(attr saml.Attribute, name string) bool {
	return name != "" && (attr.Name == name || attr.FriendlyName == name)
}
