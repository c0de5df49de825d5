package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/preflight/internal/config"
)

// stubServices points every service at local stubs and returns the paths
// each stub was asked for.
type stubServices struct {
	mu    sync.Mutex
	paths []string
}

func (s *stubServices) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, r.URL.Path)
}

func (s *stubServices) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

func setupServices(t *testing.T) *stubServices {
	t.Helper()
	for _, key := range []string{
		config.EnvJotformSignupFormID, config.EnvJotformSetupFormID, config.EnvGivebutterCampaignID,
		config.EnvSupabaseDBURL, config.EnvSupabaseTable, config.EnvHTTPTimeout, config.EnvLogLevel,
		config.EnvOutput, config.EnvSampleLimit, config.EnvKeyring, config.EnvHistoryFile, config.EnvHistoryMaxSize, config.EnvWebhookURL, config.EnvWebhookHeaders,
	} {
		t.Setenv(key, "")
	}
	stubs := &stubServices{}

	jotform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stubs.record(r)
		switch {
		case r.URL.Path == "/user":
			w.Write([]byte(`{"responseCode":200,"content":{"username":"alice"}}`))
		case strings.HasSuffix(r.URL.Path, "/questions"):
			w.Write([]byte(`{"responseCode":200,"content":{"3":{"qid":"3","name":"email","type":"control_email","text":"Email"}}}`))
		case strings.HasSuffix(r.URL.Path, "/submissions"):
			w.Write([]byte(`{"responseCode":200,"content":[],"resultSet":{"offset":0,"limit":2,"count":0}}`))
		default:
			w.Write([]byte(`{"responseCode":200,"content":{"id":"1","title":"Signup","count":"0"}}`))
		}
	}))
	t.Cleanup(jotform.Close)

	givebutter := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stubs.record(r)
		switch r.URL.Path {
		case "/campaigns/CQVG3W":
			w.Write([]byte(`{"data":{"id":1,"title":"Spring Drive","type":"general","goal":12500,"raised":300,"donors":4}}`))
		default:
			w.Write([]byte(`{"data":[],"meta":{"total":3,"current_page":1,"last_page":1,"per_page":20}}`))
		}
	}))
	t.Cleanup(givebutter.Close)

	supabase := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stubs.record(r)
		w.Header().Set("Content-Range", "*/0")
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(supabase.Close)

	t.Setenv(config.EnvJotformAPIKey, "jf_key")
	t.Setenv(config.EnvJotformBaseURL, jotform.URL)
	t.Setenv(config.EnvGivebutterAPIKey, "gb_key")
	t.Setenv(config.EnvGivebutterBaseURL, givebutter.URL)
	t.Setenv(config.EnvSupabaseURL, supabase.URL)
	t.Setenv(config.EnvSupabaseKey, "sb_key")
	return stubs
}

func run(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd(&out, &errOut)
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "absent.env")}, args...))
	err := root.Execute()
	return out.String(), errOut.String(), ExitCode(err)
}

func TestCheck_AllPass(t *testing.T) {
	setupServices(t)

	out, _, code := run(t, "check")
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, out, "Jotform: Connected as: alice")
	assert.Contains(t, out, "Givebutter: Connected - 3 campaigns accessible")
	assert.Contains(t, out, "Supabase: Connected successfully")
	assert.Contains(t, out, "All connections successful!")
	assert.Contains(t, out, "You're ready to start syncing data.")
}

func TestCheck_FailureExitsOne(t *testing.T) {
	setupServices(t)
	t.Setenv(config.EnvGivebutterAPIKey, "")

	out, _, code := run(t, "check")
	assert.Equal(t, ExitCodeError, code)
	assert.Contains(t, out, "GIVEBUTTER_API_KEY not set")
	assert.Contains(t, out, "Check your .env file and API credentials.")
}

func TestCheck_NamedServicesInOrder(t *testing.T) {
	setupServices(t)

	out, _, code := run(t, "check", "campaign-service", "form-service", "-o", "json", "-q")
	require.Equal(t, ExitCodeSuccess, code)

	var report struct {
		Results []struct {
			Service string `json:"service"`
			Success bool   `json:"success"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Results, 2)
	assert.Equal(t, "campaign-service", report.Results[0].Service)
	assert.Equal(t, "form-service", report.Results[1].Service)
}

func TestCheck_JQFilter(t *testing.T) {
	setupServices(t)

	out, _, code := run(t, "check", "form-service", "-o", "json", "--jq", ".results[0].success", "-q")
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "true\n", out)
}

func TestCheck_StructuredEchoesConsoleToStderr(t *testing.T) {
	setupServices(t)

	out, errOut, code := run(t, "check", "data-store", "-o", "yaml")
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, out, "service: data-store")
	assert.Contains(t, errOut, "Supabase: Connected successfully")
	assert.NotContains(t, out, "You're ready", "hints are console only")
}

func TestCheck_CSV(t *testing.T) {
	setupServices(t)

	out, _, code := run(t, "check", "form-service", "-o", "csv", "-q")
	assert.Equal(t, ExitCodeSuccess, code)
	assert.True(t, strings.HasPrefix(out, "service,success,detail\n"), out)
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown service", []string{"check", "mailer"}},
		{"jq with console", []string{"check", "--jq", ".results"}},
		{"jq with csv", []string{"check", "-o", "csv", "--jq", ".results"}},
		{"bad format", []string{"check", "-o", "xml"}},
		{"bad limit", []string{"explore", "campaign", "--limit", "0"}},
		{"too many args", []string{"explore", "campaign", "A", "B"}},
		{"unknown flag", []string{"check", "--nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupServices(t)
			_, _, code := run(t, tt.args...)
			assert.Equal(t, ExitCodeUsage, code)
		})
	}
}

func TestExploreCampaign(t *testing.T) {
	stubs := setupServices(t)

	out, _, code := run(t, "explore", "campaign")
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, out, "CQVG3W")
	assert.Contains(t, out, "Spring Drive")
	assert.Contains(t, out, "Exploration complete!")
	assert.Equal(t, []string{"/campaigns/CQVG3W", "/campaigns/CQVG3W/members", "/campaigns/CQVG3W/teams", "/contacts"}, stubs.seen())
}

func TestExploreForms_DefaultsToBothForms(t *testing.T) {
	stubs := setupServices(t)
	t.Setenv(config.EnvJotformSignupFormID, "111")
	t.Setenv(config.EnvJotformSetupFormID, "222")

	_, _, code := run(t, "explore", "forms", "-q")
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, []string{
		"/form/111", "/form/111/questions", "/form/111/submissions",
		"/form/222", "/form/222/questions", "/form/222/submissions",
	}, stubs.seen())
}

func TestExploreDatastore_MissingCredentialStillExitsZero(t *testing.T) {
	setupServices(t)
	t.Setenv(config.EnvSupabaseKey, "")

	out, _, code := run(t, "explore", "datastore", "-o", "json", "-q")
	assert.Equal(t, ExitCodeSuccess, code)

	var exp struct {
		Service string `json:"service"`
		Err     string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &exp))
	assert.Equal(t, "data-store", exp.Service)
	assert.Equal(t, "SUPABASE_KEY not set", exp.Err)
}

func TestCheck_HistoryAndWebhookSinks(t *testing.T) {
	setupServices(t)

	var posted struct {
		Kind string `json:"kind"`
		OK   bool   `json:"ok"`
	}
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
	}))
	defer hook.Close()
	history := filepath.Join(t.TempDir(), "history.jsonl")

	_, _, code := run(t, "check", "form-service", "-q", "--history-file", history, "--webhook", hook.URL)
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "check", posted.Kind)
	assert.True(t, posted.OK)

	data, err := os.ReadFile(history)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"check"`)
}

func TestCheck_HistoryFlushFailureExitsOne(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	setupServices(t)

	_, _, code := run(t, "check", "form-service", "-q", "--history-file", "/dev/full")
	assert.Equal(t, ExitCodeError, code)
}

func TestCheckFailure_JoinsCloseError(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	setupServices(t)
	t.Setenv(config.EnvJotformAPIKey, "")

	var out, errOut bytes.Buffer
	root := NewRootCmd(&out, &errOut)
	root.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "absent.env"), "check", "form-service", "-q", "--history-file", "/dev/full"})
	err := root.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChecksFailed)
	assert.NotEqual(t, ErrChecksFailed, err, "close failure must not be hidden")
	assert.Contains(t, err.Error(), "close output")
}

func TestCheck_HistoryRotatesAtMaxSize(t *testing.T) {
	setupServices(t)
	history := filepath.Join(t.TempDir(), "history.jsonl")

	for i := 0; i < 2; i++ {
		_, _, code := run(t, "check", "form-service", "-q", "--history-file", history, "--history-max-size", "64")
		require.Equal(t, ExitCodeSuccess, code)
	}
	assert.FileExists(t, history+".1")

	t.Setenv(config.EnvHistoryMaxSize, "-5")
	_, _, code := run(t, "check", "form-service", "-q", "--history-file", history)
	assert.Equal(t, ExitCodeUsage, code)
}

func TestCheck_WebhookHeaders(t *testing.T) {
	setupServices(t)

	var fromEnv, fromFlag string
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromEnv = r.Header.Get("X-Team")
		fromFlag = r.Header.Get("Authorization")
	}))
	defer hook.Close()

	t.Setenv(config.EnvWebhookHeaders, "X-Team=ops")
	_, _, code := run(t, "check", "form-service", "-q", "--webhook", hook.URL)
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "ops", fromEnv)

	_, _, code = run(t, "check", "form-service", "-q", "--webhook", hook.URL, "--webhook-header", "Authorization=Bearer abc")
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "Bearer abc", fromFlag)
}

func TestCheck_DefaultLogLevelKeepsStderrQuiet(t *testing.T) {
	setupServices(t)

	_, errOut, code := run(t, "check", "-q")
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Empty(t, errOut)

	_, errOut, _ = run(t, "check", "-q", "--log-level", "debug")
	assert.NotEmpty(t, errOut)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitCodeSuccess, ExitCode(nil))
	assert.Equal(t, ExitCodeError, ExitCode(ErrChecksFailed))
	assert.Equal(t, ExitCodeError, ExitCode(errors.New("write failed")))
	assert.Equal(t, ExitCodeUsage, ExitCode(usageError{errors.New("bad flag")}))
}
