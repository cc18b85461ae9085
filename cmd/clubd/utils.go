package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	timeout     = 15 * time.Second
	weiDecimals = 18
)

type errorResponse struct {
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e errorResponse) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func post[T any](url, body string) (result T, err error) {
	req, err := http.NewRequest("POST", url, strings.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Add("Content-Type", "application/json")
	return do[T](req)
}

func get[T any](url string) (result T, err error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return
	}
	req.Header.Add("Accept", "application/json")
	return do[T](req)
}

func do[T any](req *http.Request) (result T, err error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return
	}
	// nolint
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errResp := errorResponse{}
		if jerr := json.Unmarshal(buf, &errResp); jerr != nil || errResp.Name == "" {
			err = fmt.Errorf("request failed with status %d: %s", resp.StatusCode, buf)
			return
		}
		err = errResp
		return
	}

	err = json.Unmarshal(buf, &result)
	return
}

func printJSON(resp any) error {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(jsonBytes))
	return nil
}

// formatWei returns the given amount in ETH.
func formatWei(wei string) string {
	amount, ok := new(big.Int).SetString(wei, 10)
	if !ok {
		return wei
	}
	return decimal.NewFromBigInt(amount, -weiDecimals).String()
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0o755)
	}
	return nil
}
