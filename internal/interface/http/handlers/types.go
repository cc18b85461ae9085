package handlers

type InfoResponse struct {
	MintFee                 string         `json:"mintFee"`
	TokenCounter            uint64         `json:"tokenCounter"`
	Initialized             bool           `json:"initialized"`
	MetadataReferencesCount int            `json:"metadataReferencesCount"`
	Categories              []CategoryInfo `json:"categories"`
	Modulus                 uint64         `json:"modulus"`
	CoordinatorAddress      string         `json:"coordinatorAddress"`
	ConsumerAddress         string         `json:"consumerAddress"`
}

type CategoryInfo struct {
	Id         uint8  `json:"id"`
	Name       string `json:"name"`
	LowerBound uint64 `json:"lowerBound"`
	UpperBound uint64 `json:"upperBound"`
}

type FeeResponse struct {
	MintFee string `json:"mintFee"`
}

type CounterResponse struct {
	TokenCounter uint64 `json:"tokenCounter"`
}

type MetadataResponse struct {
	Index     uint64 `json:"index"`
	Reference string `json:"reference"`
}

type InitializedResponse struct {
	Initialized bool `json:"initialized"`
}

type MintRequest struct {
	Requester string `json:"requester"`
	// Payment is a base 10 amount in wei.
	Payment string `json:"payment"`
}

type MintResponse struct {
	RequestId string `json:"requestId"`
}

type MintRequestResponse struct {
	RequestId   string  `json:"requestId"`
	Requester   string  `json:"requester"`
	Payment     string  `json:"payment"`
	Status      string  `json:"status"`
	TokenId     *uint64 `json:"tokenId,omitempty"`
	CreatedAt   int64   `json:"createdAt"`
	FulfilledAt int64   `json:"fulfilledAt,omitempty"`
}

type MintRequestsResponse struct {
	Requests []MintRequestResponse `json:"requests"`
}

type TokenResponse struct {
	TokenId           uint64 `json:"tokenId"`
	Owner             string `json:"owner"`
	CategoryId        uint8  `json:"categoryId"`
	Category          string `json:"category"`
	MetadataReference string `json:"metadataReference"`
	RequestId         string `json:"requestId"`
	RandomWord        string `json:"randomWord"`
	MintedAt          int64  `json:"mintedAt"`
}

type TokensResponse struct {
	Tokens []TokenResponse `json:"tokens"`
}

type TokenUriResponse struct {
	TokenId  uint64 `json:"tokenId"`
	TokenUri string `json:"tokenUri"`
}

type CategoryResponse struct {
	Id   uint8  `json:"id"`
	Name string `json:"name"`
}

// FulfillmentRequest is the body posted by the oracle gateway. Words are
// decimal or 0x prefixed hex, the signature is 0x prefixed hex.
type FulfillmentRequest struct {
	RequestId   string   `json:"requestId"`
	RandomWords []string `json:"randomWords"`
	Signature   string   `json:"signature"`
}

type PendingRequest struct {
	RequestId string `json:"requestId"`
	Consumer  string `json:"consumer"`
	NumWords  uint32 `json:"numWords"`
	Nonce     uint64 `json:"nonce"`
	CreatedAt int64  `json:"createdAt"`
}

type PendingRequestsResponse struct {
	Requests []PendingRequest `json:"requests"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
