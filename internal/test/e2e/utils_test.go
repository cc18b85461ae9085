package e2e_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clubnft/clubd/internal/interface/http/handlers"
	"github.com/stretchr/testify/require"
)

func runClubdCommand(arg ...string) (string, error) {
	args := append([]string{"exec", "-t", "clubd", "clubd"}, arg...)
	args = append(args, "--url", fmt.Sprintf("http://%s", serverUrl))
	return runDockerExecArgs(args...)
}

func runDockerExecArgs(args ...string) (string, error) {
	out, err := runCommand("docker", args...)
	if err != nil {
		return "", err
	}
	idx := strings.Index(out, "{")
	if idx == -1 {
		return out, nil
	}
	return out[idx:], nil
}

func runCommand(name string, arg ...string) (string, error) {
	errb := new(strings.Builder)
	cmd := newCommand(name, arg...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", err
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", err
	}

	if err := cmd.Start(); err != nil {
		return "", err
	}
	output := new(strings.Builder)
	errorb := new(strings.Builder)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if _, err := io.Copy(output, stdout); err != nil {
			fmt.Fprintf(errb, "error reading stdout: %s", err)
		}
	}()

	go func() {
		defer wg.Done()
		if _, err := io.Copy(errorb, stderr); err != nil {
			fmt.Fprintf(errb, "error reading stderr: %s", err)
		}
	}()

	wg.Wait()
	if err := cmd.Wait(); err != nil {
		if errMsg := errorb.String(); len(errMsg) > 0 {
			return "", fmt.Errorf("%s", errMsg)
		}

		if outMsg := output.String(); len(outMsg) > 0 {
			return "", fmt.Errorf("%s", outMsg)
		}

		return "", err
	}

	if errMsg := errb.String(); len(errMsg) > 0 {
		return "", fmt.Errorf("%s", errMsg)
	}

	return strings.Trim(output.String(), "\n"), nil
}

func newCommand(name string, arg ...string) *exec.Cmd {
	cmd := exec.Command(name, arg...)
	return cmd
}

func getJSON[T any](t *testing.T, path string) T {
	t.Helper()

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s%s", serverUrl, path))
	require.NoError(t, err)
	// nolint
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func serverIsUp() bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/healthz", serverUrl))
	if err != nil {
		return false
	}
	// nolint
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func requestMint(t *testing.T, requester string) string {
	t.Helper()

	out, err := runClubdCommand("mint", "--requester", requester)
	require.NoError(t, err)

	idx := strings.LastIndex(out, "request id: ")
	require.NotEqual(t, -1, idx, out)
	return strings.TrimSpace(out[idx+len("request id: "):])
}

func fulfill(t *testing.T, requestId string) handlers.MintRequestResponse {
	t.Helper()

	out, err := runClubdCommand("oracle", "fulfill", "--id", requestId)
	require.NoError(t, err)

	var request handlers.MintRequestResponse
	require.NoError(t, json.Unmarshal([]byte(out), &request))
	return request
}
