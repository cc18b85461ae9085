package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clubnft/clubd/internal/config"
	"github.com/urfave/cli/v2"
)

const (
	urlFlagName       = "url"
	datadirFlagName   = "profile-dir"
	requesterFlagName = "requester"
	paymentFlagName   = "payment"
	waitFlagName      = "wait"
	timeoutFlagName   = "timeout"
	requestIdFlagName = "id"
	tokenIdFlagName   = "token-id"
	ownerFlagName     = "owner"
	assetsFlagName    = "assets"
	outFlagName       = "out"
)

var defaultUrl = fmt.Sprintf("http://127.0.0.1:%d", config.DefaultPort)

var (
	urlFlag = &cli.StringFlag{
		Name:  urlFlagName,
		Usage: "the url where to reach clubd",
		Value: defaultUrl,
	}
	datadirFlag = &cli.StringFlag{
		Name:  datadirFlagName,
		Usage: "directory of the client profile",
		Value: clientDataDir(),
	}
	requesterFlag = &cli.StringFlag{
		Name:  requesterFlagName,
		Usage: "address of the account requesting mints",
	}
	paymentFlag = &cli.StringFlag{
		Name:  paymentFlagName,
		Usage: "payment in wei, defaults to the current mint fee",
	}
	waitFlag = &cli.BoolFlag{
		Name:  waitFlagName,
		Usage: "wait for the request to be fulfilled",
	}
	timeoutFlag = &cli.DurationFlag{
		Name:  timeoutFlagName,
		Usage: "maximum time to wait for the fulfillment",
		Value: 5 * time.Minute,
	}
	requestIdFlag = &cli.StringFlag{
		Name:     requestIdFlagName,
		Usage:    "id of the mint request",
		Required: true,
	}
	tokenIdFlag = &cli.Uint64Flag{
		Name:     tokenIdFlagName,
		Usage:    "id of the token",
		Required: true,
	}
	ownerFlag = &cli.StringFlag{
		Name:  ownerFlagName,
		Usage: "owner of the tokens, defaults to the profile requester",
	}
	assetsFlag = &cli.StringFlag{
		Name:     assetsFlagName,
		Usage:    "directory of the club images to upload",
		Required: true,
	}
	outFlag = &cli.StringFlag{
		Name:  outFlagName,
		Usage: "file where to write the tokenUris of the uploaded assets",
	}
)

func clientDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".clubd"
	}
	return filepath.Join(home, ".clubd")
}
