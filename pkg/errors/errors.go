package errors

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	grpccodes "google.golang.org/grpc/codes"
)

// Code is the type representing a namespace error code.
type Code[MT any] struct {
	Code     uint16
	Name     string
	GrpcCode grpccodes.Code
}

// New creates a new error with the given code and the message
func (c Code[MT]) New(msg string, args ...any) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: fmt.Errorf(msg, args...),
	}
}

// Wrap creates a new Error with the given code and the cause error
func (c Code[MT]) Wrap(cause error) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: cause,
	}
}

func (c Code[MT]) String() string {
	return fmt.Sprintf("%s (%d)", c.Name, c.Code)
}

type Error interface {
	error
	Log() *log.Entry
	Code() uint16
	CodeName() string
	GrpcCode() grpccodes.Code
	Metadata() map[string]string
	Unwrap() error
}

type TypedError[MT any] interface {
	Error
	WithMetadata(MT) TypedError[MT]
}

// ErrorImpl is the default concrete implementation of TypedError.
type ErrorImpl[MT any] struct {
	code     Code[MT]
	cause    error
	metadata MT
}

func (e *ErrorImpl[MT]) Log() *log.Entry {
	return log.WithField("name", e.code.Name).
		WithField("code", e.code.Code).
		WithField("metadata", e.metadata)
}

func (e *ErrorImpl[MT]) Metadata() map[string]string {
	// convert any metadata to map[string]string
	metadata := make(map[string]string)
	buf, err := json.Marshal(e.metadata)
	if err == nil {
		var genericMap map[string]any
		if err := json.Unmarshal(buf, &genericMap); err == nil {
			for k, v := range genericMap {
				vStr := ""
				if v != nil {
					vStr = fmt.Sprintf("%v", v)
				}
				metadata[k] = vStr
			}
		}
	}
	return metadata
}

func (e *ErrorImpl[MT]) GrpcCode() grpccodes.Code {
	return e.code.GrpcCode
}

func (e *ErrorImpl[MT]) Code() uint16 {
	return e.code.Code
}

func (e *ErrorImpl[MT]) CodeName() string {
	return e.code.Name
}

// Error() implements the error interface.
func (e *ErrorImpl[MT]) Error() string {
	return fmt.Sprintf("%s: %s", e.code.String(), e.cause.Error())
}

func (e *ErrorImpl[MT]) Unwrap() error {
	return e.cause
}

func (e *ErrorImpl[MT]) WithMetadata(metadata MT) TypedError[MT] {
	e.metadata = metadata
	return e
}

type PaymentMetadata struct {
	Payment string `json:"payment"`
	MintFee string `json:"mint_fee"`
}

type RandomValueMetadata struct {
	RandomValue string `json:"random_value"`
	Modulus     uint64 `json:"modulus"`
}

type RequestMetadata struct {
	RequestId string `json:"request_id"`
}

type CoordinatorMetadata struct {
	Expected string `json:"expected"`
	Got      string `json:"got"`
}

type TokenMetadata struct {
	TokenId uint64 `json:"token_id"`
}

type IndexMetadata struct {
	Index  uint64 `json:"index"`
	Length int    `json:"length"`
}

var INTERNAL_ERROR = Code[map[string]any]{0, "INTERNAL_ERROR", grpccodes.Internal}
var INVALID_ARGUMENT = Code[map[string]any]{1, "INVALID_ARGUMENT", grpccodes.InvalidArgument}

var INSUFFICIENT_PAYMENT = Code[PaymentMetadata]{
	2,
	"INSUFFICIENT_PAYMENT",
	grpccodes.FailedPrecondition,
}

var CATEGORY_OUT_OF_RANGE = Code[RandomValueMetadata]{
	3,
	"CATEGORY_OUT_OF_RANGE",
	grpccodes.OutOfRange,
}

var UNKNOWN_OR_STALE_REQUEST = Code[RequestMetadata]{
	4,
	"UNKNOWN_OR_STALE_REQUEST",
	grpccodes.NotFound,
}

var ONLY_COORDINATOR_CAN_FULFILL = Code[CoordinatorMetadata]{
	5,
	"ONLY_COORDINATOR_CAN_FULFILL",
	grpccodes.PermissionDenied,
}
var NOT_INITIALIZED = Code[any]{6, "NOT_INITIALIZED", grpccodes.Unavailable}
var ALREADY_INITIALIZED = Code[any]{7, "ALREADY_INITIALIZED", grpccodes.AlreadyExists}
var TOKEN_NOT_FOUND = Code[TokenMetadata]{8, "TOKEN_NOT_FOUND", grpccodes.NotFound}

var METADATA_INDEX_OUT_OF_RANGE = Code[IndexMetadata]{
	9,
	"METADATA_INDEX_OUT_OF_RANGE",
	grpccodes.OutOfRange,
}

var CONTENT_NOT_FOUND = Code[map[string]any]{10, "CONTENT_NOT_FOUND", grpccodes.NotFound}
var NOT_SUPPORTED = Code[any]{11, "NOT_SUPPORTED", grpccodes.Unimplemented}
