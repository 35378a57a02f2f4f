package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-chat/pkg/agent"
	"github.com/ilkoid/poncho-chat/pkg/config"
	"github.com/ilkoid/poncho-chat/pkg/llm"
)

func TestParseFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	opts, err := parseFlags(fs, []string{
		"-config", "chat.yaml",
		"-env-file", "a.env", "-env-file", "b.env",
		"-tools", "tool-weather.py",
		"-json=false",
		"What", "is", "up?",
	})
	require.NoError(t, err)

	assert.Equal(t, "chat.yaml", opts.configPath)
	assert.Equal(t, stringList{"a.env", "b.env"}, opts.envFiles)
	assert.False(t, opts.jsonOutput)
	assert.Equal(t, "What is up?", opts.prompt)

	cfg := config.Default()
	cfg.ModelName = "from-file"
	opts.overrides(&cfg)
	assert.Equal(t, "from-file", cfg.ModelName)
	assert.Equal(t, "What is up?", cfg.UserContent)
	assert.Equal(t, "tool-weather.py", cfg.ToolModules)
}

func TestRun_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hello from the model"}}]}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "chat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint_url: ${CHAT_ENDPOINT}\nmodel_name: merlinite-7b\nuser_content: Hello AI Platform!\n"), 0600))
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("CHAT_ENDPOINT="+srv.URL+"/v1\n"), 0600))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", path, "-env-file", envPath}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, true, out["changed"])
	assert.Equal(t, "Hello from the model", out["response"])
	assert.Len(t, out["original_messages"], 1)
	assert.NotEmpty(t, out["invocation_id"])
}

func TestRun_FailureEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/v1"
	srv.Close()

	var stdout, stderr bytes.Buffer
	code := run([]string{"-endpoint", endpoint, "-model", "m", "-prompt", "hi"}, &stdout, &stderr)
	assert.Equal(t, 1, code)

	var out failure
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.False(t, out.Changed)
	assert.True(t, out.Failed)
	assert.Contains(t, out.Msg, endpoint)
	assert.Contains(t, out.Msg, "first completion")
}

func TestRun_LoadFailureEnvelope(t *testing.T) {
	endpoint := "http://127.0.0.1:8000/v1"

	var stdout, stderr bytes.Buffer
	code := run([]string{"-endpoint", endpoint, "-model", "m", "-prompt", "hi", "-tools", "tool-calendar.py"}, &stdout, &stderr)
	assert.Equal(t, 1, code)

	var out failure
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.False(t, out.Changed)
	assert.True(t, out.Failed)
	assert.Contains(t, out.Msg, endpoint)
	assert.Contains(t, out.Msg, "tool load")
	assert.Contains(t, out.Msg, "tool-calendar.py")
}

func TestRun_CheckSkipsEndpoint(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-check",
		"-endpoint", srv.URL + "/v1",
		"-model", "m",
		"-system", "Be brief.",
		"-prompt", "What is the weather in Paris?",
		"-tools", "tool-weather.py",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	var out agent.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.False(t, out.Changed)
	assert.Empty(t, out.Response)
	require.Len(t, out.OriginalMessages, 2)
	assert.Equal(t, llm.RoleSystem, out.OriginalMessages[0].Role)
	assert.Contains(t, out.OriginalMessages[0].Content, "Be brief.")
	assert.Equal(t, "What is the weather in Paris?", out.OriginalMessages[1].Content)
	assert.NotEmpty(t, out.Warnings, "tool activation notice is reported")
}

func TestRun_ConfigError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-model", "m"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "endpoint_url is required")
}

func TestRun_Version(t *testing.T) {
	var stdout bytes.Buffer
	assert.Equal(t, 0, run([]string{"-version"}, &stdout, io.Discard))
	assert.Contains(t, stdout.String(), "poncho-chat version")
}

func TestPrintHuman(t *testing.T) {
	var buf bytes.Buffer
	printHuman(&buf, agent.Result{
		Changed: true,
		OriginalMessages: []llm.Message{
			{Role: llm.RoleSystem, Content: "Always use the get_weather tool."},
			{Role: llm.RoleUser, Content: "Weather?"},
		},
		Response:     "It is 72 degrees fahrenheit.",
		Warnings:     []string{"Tool activated: get_weather (from weather)"},
		InvocationID: "abc",
	}, true)

	out := buf.String()
	assert.Contains(t, out, "[system] Always use the get_weather tool.")
	assert.Contains(t, out, "! Tool activated: get_weather")
	assert.Contains(t, out, "It is 72 degrees fahrenheit.")
	assert.Contains(t, out, "invocation abc")

	buf.Reset()
	printFailureHuman(&buf, errors.New("boom"), true)
	assert.Equal(t, "Error: boom\n", buf.String())
}
