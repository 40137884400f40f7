package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"danledger/internal/auth"
)

// Request payloads for the five operations and the read queries. The subject
// determines the type; every mutating request carries a caller-chosen
// request_id for retry deduplication and the set of signing identities.

type InitializeRequest struct {
	RequestID       string       `json:"request_id"`
	Signers         auth.Signers `json:"signers"`
	URI             string       `json:"uri"`
	Name            string       `json:"name"`
	Symbol          string       `json:"symbol"`
	TokenPrice      uint64       `json:"token_price"`
	WithdrawPercent uint64       `json:"withdraw_percent"`
}

type RegisterWorkerRequest struct {
	RequestID            string       `json:"request_id"`
	Signers              auth.Signers `json:"signers"`
	Worker               uuid.UUID    `json:"worker"`
	InitialWithdrawLimit uint64       `json:"initial_withdraw_limit"`
}

type RegisterDemanderRequest struct {
	RequestID      string       `json:"request_id"`
	Signers        auth.Signers `json:"signers"`
	Demander       uuid.UUID    `json:"demander"`
	InitialBalance uint64       `json:"initial_balance"`
}

type DistributeRequest struct {
	RequestID string       `json:"request_id"`
	Signers   auth.Signers `json:"signers"`
	Demander  uuid.UUID    `json:"demander"`
	Worker    uuid.UUID    `json:"worker"`
	Amount    uint64       `json:"amount"`
}

type WithdrawRequest struct {
	RequestID string       `json:"request_id"`
	Signers   auth.Signers `json:"signers"`
	Worker    uuid.UUID    `json:"worker"`
	Amount    uint64       `json:"amount"`
}

type GetWorkerRequest struct {
	Worker uuid.UUID `json:"worker"`
}

type GetDemanderRequest struct {
	Demander uuid.UUID `json:"demander"`
}

func ParseInitialize(data []byte) (InitializeRequest, error) {
	var req InitializeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parse initialize: %w", err)
	}
	if err := requireMutation(req.RequestID, req.Signers); err != nil {
		return req, fmt.Errorf("initialize: %w", err)
	}
	if req.Name == "" || req.Symbol == "" {
		return req, fmt.Errorf("initialize: name and symbol are required")
	}
	return req, nil
}

func ParseRegisterWorker(data []byte) (RegisterWorkerRequest, error) {
	var req RegisterWorkerRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parse register_worker: %w", err)
	}
	if err := requireMutation(req.RequestID, req.Signers); err != nil {
		return req, fmt.Errorf("register_worker: %w", err)
	}
	if req.Worker == uuid.Nil {
		return req, fmt.Errorf("register_worker: worker identity is required")
	}
	return req, nil
}

func ParseRegisterDemander(data []byte) (RegisterDemanderRequest, error) {
	var req RegisterDemanderRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parse register_demander: %w", err)
	}
	if err := requireMutation(req.RequestID, req.Signers); err != nil {
		return req, fmt.Errorf("register_demander: %w", err)
	}
	if req.Demander == uuid.Nil {
		return req, fmt.Errorf("register_demander: demander identity is required")
	}
	return req, nil
}

func ParseDistribute(data []byte) (DistributeRequest, error) {
	var req DistributeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parse distribute: %w", err)
	}
	if err := requireMutation(req.RequestID, req.Signers); err != nil {
		return req, fmt.Errorf("distribute: %w", err)
	}
	if req.Demander == uuid.Nil || req.Worker == uuid.Nil {
		return req, fmt.Errorf("distribute: demander and worker identities are required")
	}
	return req, nil
}

func ParseWithdraw(data []byte) (WithdrawRequest, error) {
	var req WithdrawRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parse withdraw: %w", err)
	}
	if err := requireMutation(req.RequestID, req.Signers); err != nil {
		return req, fmt.Errorf("withdraw: %w", err)
	}
	if req.Worker == uuid.Nil {
		return req, fmt.Errorf("withdraw: worker identity is required")
	}
	return req, nil
}

func ParseGetWorker(data []byte) (GetWorkerRequest, error) {
	var req GetWorkerRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parse get_worker: %w", err)
	}
	if req.Worker == uuid.Nil {
		return req, fmt.Errorf("get_worker: worker identity is required")
	}
	return req, nil
}

func ParseGetDemander(data []byte) (GetDemanderRequest, error) {
	var req GetDemanderRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parse get_demander: %w", err)
	}
	if req.Demander == uuid.Nil {
		return req, fmt.Errorf("get_demander: demander identity is required")
	}
	return req, nil
}

func requireMutation(requestID string, signers auth.Signers) error {
	if requestID == "" {
		return fmt.Errorf("request_id is required")
	}
	if len(signers) == 0 {
		return fmt.Errorf("at least one signer is required")
	}
	return nil
}
