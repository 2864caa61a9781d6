package sweep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cadsweep/cadsweep/pkg/client"
	"github.com/cadsweep/cadsweep/pkg/models"
	"github.com/cadsweep/cadsweep/pkg/server"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.Logger = zerolog.Nop()
	gin.SetMode(gin.TestMode)
}

var document = models.Document{
	DocumentID:  "e60c4803eda8b1d5a5ed7f30",
	WorkspaceID: "da81f4bf0d16ec7d5f9c8b1f",
	ElementID:   "0b5c6bbd6d1e8f4e8d5cf24a",
}

var credentials = models.Credentials{AccessKey: "access", SecretKey: "secret"}

func ptr[T any](v T) *T {
	return &v
}

func newConfiguration(t *testing.T, name string, start, end, step float64) *models.Configuration {
	return &models.Configuration{
		API:      &models.APIConfig{},
		Document: &document,
		Variable: &models.SweepConfig{
			Name:       name,
			StartValue: ptr(start),
			EndValue:   ptr(end),
			StepSize:   ptr(step),
			Unit:       "mm",
		},
		Export: &models.ExportConfig{
			OutputFolder:    filepath.Join(t.TempDir(), "output"),
			ExportStep:      ptr(true),
			ExportParasolid: ptr(true),
		},
		Timing: &models.TimingConfig{
			DelayBetweenIterations: ptr(2.0),
			SettleDelay:            ptr(1.0),
		},
	}
}

// Driver talking to a part studio stub over HTTP
func newStubDriver(t *testing.T, config *models.Configuration) (*Driver, *server.Studio) {
	var variables models.Variables
	require.NoError(t, json.Unmarshal([]byte(`[
		{"type":"LENGTH","name":"length","expression":"1 mm","units":"mm"},
		{"type":"ANGLE","name":"angle","expression":"45 deg"}
	]`), &variables))

	studio := server.NewStudio(document, variables, []string{"JHD", "JHH"})
	testServer := httptest.NewServer(server.NewAPI(studio, credentials).Gin)
	t.Cleanup(testServer.Close)

	driver := NewDriver(client.NewAPIClient(testServer.Client(), testServer.URL, credentials), config)
	driver.Sleep = func(time.Duration) {}
	return driver, studio
}

func outputFiles(t *testing.T, dir string) []string {
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestList(t *testing.T) {
	driver, studio := newStubDriver(t, newConfiguration(t, "length", 10, 20, 5))

	variables, err := driver.List(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, []string{"length", "angle"}, variables.Names())

	counts := studio.Counts()
	assert.Equal(t, 1, counts.Reads)
	assert.Equal(t, 0, counts.Writes)
	assert.Empty(t, counts.Exports)
	assert.NoDirExists(t, driver.Configuration.Export.OutputFolder)
}

func TestRun(t *testing.T) {
	config := newConfiguration(t, "length", 10, 20, 5)
	driver, studio := newStubDriver(t, config)

	summary, err := driver.Run(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Iterations)
	assert.Equal(t, 0, summary.UpdatesFailed)
	assert.Equal(t, 6, summary.ExportsWritten)
	assert.Equal(t, 0, summary.ExportsFailed)
	assert.Equal(t, config.Export.OutputFolder, summary.OutputFolder)

	assert.ElementsMatch(t, []string{
		"length_10.step", "length_10.x_t",
		"length_15.step", "length_15.x_t",
		"length_20.step", "length_20.x_t",
	}, outputFiles(t, summary.OutputFolder))

	content, err := os.ReadFile(filepath.Join(summary.OutputFolder, "length_15.step"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "/* length = 15 mm */")
	assert.Contains(t, string(content), "/* angle = 45 deg */")

	counts := studio.Counts()
	assert.Equal(t, 3, counts.Reads)
	assert.Equal(t, 3, counts.Writes)
	assert.Equal(t, map[models.ExportFormat]int{
		models.ExportSTEP:      3,
		models.ExportParasolid: 3,
	}, counts.Exports)

	variables := studio.Variables()
	assert.Equal(t, "20 mm", variables[0].Expression)
	assert.Equal(t, "45 deg", variables[1].Expression)
}

func TestRunSelectedParts(t *testing.T) {
	config := newConfiguration(t, "length", 1, 1, 1)
	config.Export.ExportStep = ptr(false)
	config.Export.PartIDs = []string{"JHH"}
	driver, _ := newStubDriver(t, config)

	summary, err := driver.Run(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, []string{"length_1.x_t"}, outputFiles(t, summary.OutputFolder))

	content, err := os.ReadFile(filepath.Join(summary.OutputFolder, "length_1.x_t"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "**BODY JHH")
	assert.NotContains(t, string(content), "**BODY JHD")
}

func TestRunVariableNotFound(t *testing.T) {
	driver, studio := newStubDriver(t, newConfiguration(t, "height", 10, 20, 5))

	summary, err := driver.Run(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.UpdatesFailed)
	assert.Equal(t, 0, summary.ExportsWritten)
	for _, result := range summary.Results {
		assert.False(t, result.Updated)
		assert.ErrorIs(t, result.Err, client.ErrVariableNotFound)
	}
	assert.Empty(t, outputFiles(t, summary.OutputFolder))

	counts := studio.Counts()
	assert.Equal(t, 0, counts.Writes)
	assert.Empty(t, counts.Exports)
}

func TestRunExportFailureContinues(t *testing.T) {
	driver, studio := newStubDriver(t, newConfiguration(t, "length", 10, 20, 5))
	studio.FailExports(models.ExportSTEP, 500)

	summary, err := driver.Run(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.UpdatesFailed)
	assert.Equal(t, 3, summary.ExportsWritten)
	assert.Equal(t, 3, summary.ExportsFailed)
	assert.ElementsMatch(t, []string{"length_10.x_t", "length_15.x_t", "length_20.x_t"},
		outputFiles(t, summary.OutputFolder))

	var remoteErr *client.RemoteError
	require.True(t, errors.As(summary.Results[0].Err, &remoteErr))
	assert.Equal(t, 500, remoteErr.StatusCode)
	assert.ErrorContains(t, summary.Results[0].Err, "STEP export")
	assert.Equal(t, 3, studio.Counts().Exports[models.ExportParasolid])
}

func TestRunEmptyRange(t *testing.T) {
	driver, studio := newStubDriver(t, newConfiguration(t, "length", 20, 10, 5))

	summary, err := driver.Run(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Iterations)
	assert.Empty(t, summary.Results)

	counts := studio.Counts()
	assert.Equal(t, 0, counts.Reads)
	assert.Equal(t, 0, counts.Writes)
}

func TestRunInvalidStep(t *testing.T) {
	driver, studio := newStubDriver(t, newConfiguration(t, "length", 10, 20, 0))

	_, err := driver.Run(context.TODO())
	assert.ErrorIs(t, err, ErrNonPositiveStep)
	assert.Equal(t, 0, studio.Counts().Reads)
}

// Records calls and sleeps in the order they happen
type recorder struct {
	events []string
	// Expressions whose update fails
	reject map[string]bool
}

func (r *recorder) GetVariables(ctx context.Context, doc models.Document) (models.Variables, error) {
	r.events = append(r.events, "get")
	return nil, nil
}

func (r *recorder) UpdateVariable(ctx context.Context, doc models.Document, name string, expression string) error {
	r.events = append(r.events, "update "+expression)
	if r.reject[expression] {
		return errors.New("rejected")
	}
	return nil
}

func (r *recorder) Export(ctx context.Context, doc models.Document, format models.ExportFormat, partIDs []string, destination string) error {
	r.events = append(r.events, "export "+filepath.Base(destination))
	return nil
}

func (r *recorder) sleep(d time.Duration) {
	r.events = append(r.events, fmt.Sprintf("sleep %s", d))
}

func TestRunOrdering(t *testing.T) {
	config := newConfiguration(t, "length", 10, 20, 5)
	config.Export.ExportParasolid = ptr(false)

	api := &recorder{reject: map[string]bool{"15 mm": true}}
	driver := NewDriver(api, config)
	driver.Sleep = api.sleep

	summary, err := driver.Run(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UpdatesFailed)
	assert.Equal(t, 2, summary.ExportsWritten)
	assert.Equal(t, []string{
		"update 10 mm",
		"sleep 1s",
		"export length_10.step",
		"sleep 2s",
		"update 15 mm",
		"update 20 mm",
		"sleep 1s",
		"export length_20.step",
	}, api.events)
}

func TestRunNoFormats(t *testing.T) {
	config := newConfiguration(t, "length", 1, 2, 1)
	config.Export.ExportStep = ptr(false)
	config.Export.ExportParasolid = ptr(false)

	api := &recorder{}
	driver := NewDriver(api, config)
	driver.Sleep = api.sleep

	summary, err := driver.Run(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ExportsWritten)
	assert.Equal(t, []string{"update 1 mm", "sleep 1s", "sleep 2s", "update 2 mm", "sleep 1s"}, api.events)
}
