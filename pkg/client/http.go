package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/cadsweep/cadsweep/pkg/models"
	"github.com/rs/zerolog/log"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type APIClient struct {
	HTTPClient
	BaseURL     string
	credentials models.Credentials
}

func NewAPIClient(client HTTPClient, baseURL string, credentials models.Credentials) *APIClient {
	return &APIClient{
		HTTPClient:  client,
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		credentials: credentials,
	}
}

func (c *APIClient) endpoint(doc models.Document, resource string) string {
	return fmt.Sprintf("%s/api/%s/partstudios/%s/%s", c.BaseURL, models.APIVersion, doc.Path(), resource)
}

func (c *APIClient) do(ctx context.Context, method string, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.credentials.AccessKey, c.credentials.SecretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, newRemoteError(req, resp)
	}
	return resp, nil
}

// Read the variables of a part studio
func (c *APIClient) GetVariables(ctx context.Context, doc models.Document) (models.Variables, error) {
	resp, err := c.do(ctx, http.MethodGet, c.endpoint(doc, "variables"), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var variables models.Variables
	err = json.NewDecoder(resp.Body).Decode(&variables)
	if err != nil {
		return nil, fmt.Errorf("failed to decode variables: %w", err)
	}
	return variables, nil
}

// Replace the complete variable list of a part studio
func (c *APIClient) SetVariables(ctx context.Context, doc models.Document, variables models.Variables) error {
	body, err := json.Marshal(variables)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, c.endpoint(doc, "variables"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Bind the first variable named name to expression.
//
// The API only accepts the full variable list, so every variable is read and
// resubmitted. Nothing is written when no variable has that name.
func (c *APIClient) UpdateVariable(ctx context.Context, doc models.Document, name string, expression string) error {
	variables, err := c.GetVariables(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to read variables: %w", err)
	}

	i := variables.Index(name)
	if i < 0 {
		return &VariableNotFoundError{Name: name, Available: variables.Names()}
	}
	variables[i] = variables[i].WithExpression(expression)

	log.Debug().Str("variable", name).Str("expression", expression).Msg("submitting variables")
	if err := c.SetVariables(ctx, doc, variables); err != nil {
		return fmt.Errorf("failed to set variable %s: %w", name, err)
	}
	return nil
}

// Download the part studio geometry in the given format to destination.
//
// The body is written to a temporary file next to destination and renamed
// once complete, so destination is never left holding a partial export.
func (c *APIClient) Export(ctx context.Context, doc models.Document, format models.ExportFormat, partIDs []string, destination string) error {
	endpoint := c.endpoint(doc, string(format))
	if len(partIDs) > 0 {
		endpoint += "?" + url.Values{"partIds": {strings.Join(partIDs, ",")}}.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(destination), "."+filepath.Base(destination)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to download %s export: %w", format.Label(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), destination); err != nil {
		return err
	}

	log.Debug().Str("format", string(format)).Int64("bytes", n).Str("path", destination).Msg("export written")
	return nil
}
