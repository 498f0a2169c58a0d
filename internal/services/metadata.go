package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sapbridge/sapbridge-api/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/clientcredentials"
)

const metadataMaxBodySize = 10 << 20

// OutboundAuth is the decrypted credential material injected into a
// single outbound request. It exists in memory only.
type OutboundAuth struct {
	Type models.AuthType

	Username string
	Password string

	ClientID     string
	ClientSecret string
	TokenURL     string
	Scope        string

	HeaderName  string
	HeaderValue string
}

type MetadataEntity struct {
	Name string `json:"name"`
}

// MetadataResult is always a value, never a propagated fault: remote
// SAP endpoints fail routinely and callers must be able to surface
// that as data.
type MetadataResult struct {
	Entities     []MetadataEntity `json:"entities,omitempty"`
	ODataVersion string           `json:"odata_version,omitempty"`
	Error        string           `json:"error,omitempty"`
}

func (r MetadataResult) OK() bool {
	return r.Error == ""
}

func errorResult(format string, args ...any) MetadataResult {
	return MetadataResult{Error: fmt.Sprintf(format, args...)}
}

// MetadataService fetches and parses OData $metadata documents.
// Idempotent and side-effect-free on the remote system.
type MetadataService struct {
	client  *http.Client
	timeout time.Duration
	log     *logrus.Logger
}

func NewMetadataService(timeout time.Duration, log *logrus.Logger) *MetadataService {
	return &MetadataService{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		log:     log,
	}
}

// FetchMetadata retrieves <baseURL>/<servicePath>/$metadata with the
// supplied auth material and extracts the entity catalog and protocol
// version. Network, status and parse failures all come back as a
// structured error result.
func (s *MetadataService) FetchMetadata(ctx context.Context, baseURL, servicePath string, auth *OutboundAuth) MetadataResult {
	if strings.TrimSpace(baseURL) == "" {
		return errorResult("base url is empty")
	}

	metadataURL := strings.TrimRight(baseURL, "/")
	if p := strings.Trim(servicePath, "/"); p != "" {
		metadataURL += "/" + p
	}
	metadataURL += "/$metadata"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataURL, nil)
	if err != nil {
		return errorResult("invalid metadata url: %v", err)
	}
	req.Header.Set("Accept", "application/xml")

	if auth != nil {
		if result := s.applyAuth(ctx, req, auth); result != nil {
			return *result
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.WithField("url", metadataURL).WithError(err).Warn("metadata fetch failed")
		return errorResult("failed to reach metadata endpoint: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorResult("metadata endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, metadataMaxBodySize))
	if err != nil {
		return errorResult("failed to read metadata response: %v", err)
	}

	entities, version, err := parseEDMX(body)
	if err != nil {
		return errorResult("failed to parse metadata document: %v", err)
	}

	return MetadataResult{Entities: entities, ODataVersion: version}
}

// applyAuth injects credentials into the request. A non-nil return is
// a terminal error result (oauth2 token fetch can itself fail).
func (s *MetadataService) applyAuth(ctx context.Context, req *http.Request, auth *OutboundAuth) *MetadataResult {
	switch auth.Type {
	case models.AuthTypeNone, "":

	case models.AuthTypeBasic:
		req.SetBasicAuth(auth.Username, auth.Password)

	case models.AuthTypeOAuth2:
		cc := clientcredentials.Config{
			ClientID:     auth.ClientID,
			ClientSecret: auth.ClientSecret,
			TokenURL:     auth.TokenURL,
		}
		if auth.Scope != "" {
			cc.Scopes = strings.Fields(auth.Scope)
		}
		token, err := cc.Token(ctx)
		if err != nil {
			s.log.WithField("token_url", auth.TokenURL).Warn("oauth2 token fetch failed")
			result := errorResult("failed to obtain oauth2 token from %s", auth.TokenURL)
			return &result
		}
		token.SetAuthHeader(req)

	case models.AuthTypeCustom, models.AuthTypeAPIKey:
		if auth.HeaderName != "" {
			req.Header.Set(auth.HeaderName, auth.HeaderValue)
		}
	}
	return nil
}

// EDMX shapes shared by the v2 and v4 dialects. Element matching is by
// local name so vendor namespace prefixes don't matter.
type edmxDocument struct {
	XMLName      xml.Name         `xml:"Edmx"`
	Version      string           `xml:"Version,attr"`
	DataServices edmxDataServices `xml:"DataServices"`
}

type edmxDataServices struct {
	DataServiceVersion string       `xml:"DataServiceVersion,attr"`
	Schemas            []edmxSchema `xml:"Schema"`
}

type edmxSchema struct {
	Namespace   string          `xml:"Namespace,attr"`
	EntityTypes []edmxNamedDecl `xml:"EntityType"`
	Containers  []edmxContainer `xml:"EntityContainer"`
}

type edmxContainer struct {
	EntitySets []edmxNamedDecl `xml:"EntitySet"`
}

type edmxNamedDecl struct {
	Name string `xml:"Name,attr"`
}

func parseEDMX(body []byte) ([]MetadataEntity, string, error) {
	var doc edmxDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, "", err
	}

	version := models.ODataV2
	if strings.HasPrefix(doc.Version, "4") || strings.HasPrefix(doc.DataServices.DataServiceVersion, "4") {
		version = models.ODataV4
	}

	var entities []MetadataEntity
	seen := map[string]bool{}
	add := func(decls []edmxNamedDecl) {
		for _, d := range decls {
			if d.Name == "" || seen[d.Name] {
				continue
			}
			seen[d.Name] = true
			entities = append(entities, MetadataEntity{Name: d.Name})
		}
	}

	for _, schema := range doc.DataServices.Schemas {
		for _, container := range schema.Containers {
			add(container.EntitySets)
		}
	}
	// Some v2 services publish types without a container; fall back to
	// the entity type declarations.
	if len(entities) == 0 {
		for _, schema := range doc.DataServices.Schemas {
			add(schema.EntityTypes)
		}
	}

	return entities, version, nil
}
