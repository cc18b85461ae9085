package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/clubnft/clubd/internal/config"
	"github.com/clubnft/clubd/internal/core/domain"
	"github.com/clubnft/clubd/internal/interface/http/handlers"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
)

const pollInterval = 2 * time.Second

func clientFlags(flags ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{urlFlag, datadirFlag, requesterFlag}, flags...)
}

var (
	assembleCommand = cli.Command{
		Name:   "assemble",
		Usage:  "Upload the club images and their metadata records to the content store",
		Flags:  append(config.ContentStoreFlags, assetsFlag, outFlag),
		Action: assembleAction,
	}
	configCommand = cli.Command{
		Name:   "config",
		Usage:  "Store the server url and requester in the client profile",
		Flags:  clientFlags(),
		Before: loadProfile,
		Action: configAction,
	}
	infoCommand = cli.Command{
		Name:   "info",
		Usage:  "Get info about the collection",
		Flags:  clientFlags(),
		Before: loadProfile,
		Action: infoAction,
	}
	feeCommand = cli.Command{
		Name:   "fee",
		Usage:  "Get the mint fee",
		Flags:  clientFlags(),
		Before: loadProfile,
		Action: feeAction,
	}
	mintCommand = cli.Command{
		Name:   "mint",
		Usage:  "Request the mint of a token",
		Flags:  clientFlags(paymentFlag, waitFlag, timeoutFlag),
		Before: loadProfile,
		Action: mintAction,
	}
	requestCommand = cli.Command{
		Name:   "request",
		Usage:  "Get the status of a mint request",
		Flags:  clientFlags(requestIdFlag),
		Before: loadProfile,
		Action: requestAction,
	}
	requestsCommand = cli.Command{
		Name:   "requests",
		Usage:  "List the mint requests of the profile requester",
		Flags:  clientFlags(),
		Before: loadProfile,
		Action: requestsAction,
	}
	tokenCommand = cli.Command{
		Name:   "token",
		Usage:  "Get a minted token",
		Flags:  clientFlags(tokenIdFlag),
		Before: loadProfile,
		Action: tokenAction,
	}
	tokensCommand = cli.Command{
		Name:   "tokens",
		Usage:  "List the tokens of an owner",
		Flags:  clientFlags(ownerFlag),
		Before: loadProfile,
		Action: tokensAction,
	}
	oracleCommand = cli.Command{
		Name:  "oracle",
		Usage: "Drive the local randomness coordinator",
		Subcommands: cli.Commands{
			{
				Name:   "pending",
				Usage:  "List the randomness requests waiting for fulfillment",
				Flags:  clientFlags(),
				Before: loadProfile,
				Action: pendingAction,
			},
			{
				Name:   "fulfill",
				Usage:  "Fulfill a pending randomness request",
				Flags:  clientFlags(requestIdFlag),
				Before: loadProfile,
				Action: fulfillAction,
			},
		},
	}
)

func assembleAction(ctx *cli.Context) error {
	cfg, err := config.LoadContentStoreConfig(ctx)
	if err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}
	setupLogger(cfg.LogLevel)

	assembler, err := cfg.AssemblerService()
	if err != nil {
		return err
	}
	store, _ := cfg.ContentStore()
	defer store.Close()

	tokenUris, err := assembler.Assemble(ctx.Context, os.DirFS(ctx.String(assetsFlagName)))
	if err != nil {
		return err
	}

	out := map[string][]string{"tokenUris": tokenUris}
	if ctx.String(outFlagName) == "" {
		return printJSON(out)
	}
	buf, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(ctx.String(outFlagName), buf, 0o644); err != nil {
		return err
	}
	fmt.Printf("tokenUris written to %s\n", ctx.String(outFlagName))
	return nil
}

func configAction(ctx *cli.Context) error {
	if r := requester(); r != "" && !common.IsHexAddress(r) {
		return fmt.Errorf("invalid requester address %s", r)
	}
	if err := saveProfile(ctx); err != nil {
		return fmt.Errorf("failed to store client profile: %w", err)
	}
	return printJSON(map[string]string{
		urlFlagName:       serverUrl(),
		requesterFlagName: requester(),
	})
}

func infoAction(ctx *cli.Context) error {
	info, err := get[handlers.InfoResponse](serverUrl() + "/v1/info")
	if err != nil {
		return err
	}
	return printJSON(info)
}

func feeAction(ctx *cli.Context) error {
	fee, err := get[handlers.FeeResponse](serverUrl() + "/v1/fee")
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"mintFee":    fee.MintFee,
		"mintFeeEth": formatWei(fee.MintFee),
	})
}

func mintAction(ctx *cli.Context) error {
	if requester() == "" {
		return fmt.Errorf("missing requester, set it with --%s or the config command", requesterFlagName)
	}

	payment := ctx.String(paymentFlagName)
	if payment == "" {
		fee, err := get[handlers.FeeResponse](serverUrl() + "/v1/fee")
		if err != nil {
			return err
		}
		payment = fee.MintFee
	}

	body, err := json.Marshal(handlers.MintRequest{Requester: requester(), Payment: payment})
	if err != nil {
		return err
	}
	resp, err := post[handlers.MintResponse](serverUrl()+"/v1/mint", string(body))
	if err != nil {
		return err
	}
	fmt.Printf("requested mint paying %s ETH, request id: %s\n", formatWei(payment), resp.RequestId)

	if !ctx.Bool(waitFlagName) {
		return nil
	}

	if err := triggerLocalFulfillment(resp.RequestId); err != nil {
		return err
	}

	request, err := waitForFulfillment(resp.RequestId, ctx.Duration(timeoutFlagName))
	if err != nil {
		return err
	}
	token, err := get[handlers.TokenResponse](
		fmt.Sprintf("%s/v1/tokens/%d", serverUrl(), *request.TokenId),
	)
	if err != nil {
		return err
	}
	fmt.Printf(
		"minted %s token %d, token uri: %s\n",
		token.Category, token.TokenId, token.MetadataReference,
	)
	return printJSON(token)
}

// triggerLocalFulfillment asks the local coordinator to fulfill the request
// right away. Nothing is done if the server relies on a remote gateway or if
// the coordinator already fulfilled the request on its own.
func triggerLocalFulfillment(requestId string) error {
	_, err := post[handlers.MintRequestResponse](
		fmt.Sprintf("%s/v1/oracle/requests/%s/fulfill", serverUrl(), requestId), "",
	)
	if err == nil {
		return nil
	}
	var errResp errorResponse
	if errors.As(err, &errResp) &&
		(errResp.Name == "NOT_SUPPORTED" || errResp.Name == "UNKNOWN_OR_STALE_REQUEST") {
		return nil
	}
	return err
}

func waitForFulfillment(
	requestId string, timeout time.Duration,
) (*handlers.MintRequestResponse, error) {
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("%s/v1/requests/%s", serverUrl(), requestId)
	for {
		request, err := get[handlers.MintRequestResponse](url)
		if err != nil {
			return nil, err
		}
		if request.Status == domain.MintRequestStatusFulfilled.String() && request.TokenId != nil {
			return &request, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("request %s not fulfilled after %s", requestId, timeout)
		}
		time.Sleep(pollInterval)
	}
}

func requestAction(ctx *cli.Context) error {
	request, err := get[handlers.MintRequestResponse](
		fmt.Sprintf("%s/v1/requests/%s", serverUrl(), ctx.String(requestIdFlagName)),
	)
	if err != nil {
		return err
	}
	return printJSON(request)
}

func requestsAction(ctx *cli.Context) error {
	if requester() == "" {
		return fmt.Errorf("missing requester, set it with --%s or the config command", requesterFlagName)
	}
	requests, err := get[handlers.MintRequestsResponse](
		fmt.Sprintf("%s/v1/requesters/%s/requests", serverUrl(), requester()),
	)
	if err != nil {
		return err
	}
	return printJSON(requests)
}

func tokenAction(ctx *cli.Context) error {
	token, err := get[handlers.TokenResponse](
		fmt.Sprintf("%s/v1/tokens/%d", serverUrl(), ctx.Uint64(tokenIdFlagName)),
	)
	if err != nil {
		return err
	}
	return printJSON(token)
}

func tokensAction(ctx *cli.Context) error {
	owner := ctx.String(ownerFlagName)
	if owner == "" {
		owner = requester()
	}
	if owner == "" {
		return fmt.Errorf("missing owner")
	}
	tokens, err := get[handlers.TokensResponse](
		fmt.Sprintf("%s/v1/owners/%s/tokens", serverUrl(), strings.TrimSpace(owner)),
	)
	if err != nil {
		return err
	}
	return printJSON(tokens)
}

func pendingAction(ctx *cli.Context) error {
	requests, err := get[handlers.PendingRequestsResponse](serverUrl() + "/v1/oracle/requests")
	if err != nil {
		return err
	}
	return printJSON(requests)
}

func fulfillAction(ctx *cli.Context) error {
	request, err := post[handlers.MintRequestResponse](
		fmt.Sprintf(
			"%s/v1/oracle/requests/%s/fulfill", serverUrl(), ctx.String(requestIdFlagName),
		),
		"",
	)
	if err != nil {
		return err
	}
	return printJSON(request)
}
