package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"danledger/internal/core"
	"danledger/internal/ledger"
	"danledger/internal/observability"
)

// Operation subjects. Mutations go through the dispatch loop; queries too, so
// reads observe a consistent point between operations.
const (
	SubjectInitialize       = "dan.ledger.initialize"
	SubjectRegisterWorker   = "dan.ledger.register_worker"
	SubjectRegisterDemander = "dan.ledger.register_demander"
	SubjectDistribute       = "dan.ledger.distribute"
	SubjectWithdraw         = "dan.ledger.withdraw"
	SubjectGetConfig        = "dan.ledger.get_config"
	SubjectGetWorker        = "dan.ledger.get_worker"
	SubjectGetDemander      = "dan.ledger.get_demander"
)

const queueGroup = "dan-ledger"

// DefaultDedupeCapacity bounds the retry-dedupe LRU.
const DefaultDedupeCapacity = 65536

// DefaultRequestTimeout bounds a single request, including collaborator
// calls, so a stalled backend cannot wedge the dispatch loop.
const DefaultRequestTimeout = 10 * time.Second

// Server exposes the ledger operations over NATS request/reply. Subscriptions
// forward into reqChan; a single Run goroutine executes requests in arrival
// order, which is what makes the engine's one-writer assumption hold.
type Server struct {
	nc     *nats.Conn
	engine *core.Engine
	dedupe *responseCache

	reqChan chan inbound
	subs    []*nats.Subscription

	requestTimeout time.Duration

	log     zerolog.Logger
	metrics *observability.Metrics
}

type inbound struct {
	op  string
	msg *nats.Msg
}

type response struct {
	OK     bool        `json:"ok"`
	Result interface{} `json:"result,omitempty"`
	Error  *errorBody  `json:"error,omitempty"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func NewServer(nc *nats.Conn, engine *core.Engine, log zerolog.Logger, metrics *observability.Metrics) *Server {
	return &Server{
		nc:      nc,
		engine:  engine,
		dedupe:  newResponseCache(DefaultDedupeCapacity),
		reqChan: make(chan inbound, 1024),

		requestTimeout: DefaultRequestTimeout,

		log:     log,
		metrics: metrics,
	}
}

// Subscribe registers queue subscriptions for every operation subject.
func (s *Server) Subscribe() error {
	ops := []string{
		SubjectInitialize,
		SubjectRegisterWorker,
		SubjectRegisterDemander,
		SubjectDistribute,
		SubjectWithdraw,
		SubjectGetConfig,
		SubjectGetWorker,
		SubjectGetDemander,
	}
	for _, subject := range ops {
		subject := subject
		sub, err := s.nc.QueueSubscribe(subject, queueGroup, func(msg *nats.Msg) {
			s.reqChan <- inbound{op: opToken(subject), msg: msg}
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
		s.log.Info().Str("subject", subject).Msg("subscribed")
	}
	return nil
}

// Run executes requests one at a time until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-s.reqChan:
			resp := s.dispatch(ctx, in.op, in.msg.Data)
			if err := in.msg.Respond(resp); err != nil {
				s.log.Warn().Str("op", in.op).Err(err).Msg("respond failed")
			}
		}
	}
}

// Stop drains the subscriptions.
func (s *Server) Stop() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.log.Info().Msg("rpc subscriptions stopped")
}

func (s *Server) dispatch(ctx context.Context, op string, data []byte) []byte {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	switch op {
	case "initialize":
		req, err := ParseInitialize(data)
		if err != nil {
			return badRequestResponse(err)
		}
		return s.dedupedMutation(op, req.RequestID, func() []byte {
			err := s.engine.Initialize(ctx, req.Signers, req.URI, req.Name, req.Symbol, req.TokenPrice, req.WithdrawPercent)
			if err != nil {
				return errResponse(err)
			}
			return okResponse(map[string]string{"config_address": ledger.ConfigAddress().Hex()})
		})

	case "register_worker":
		req, err := ParseRegisterWorker(data)
		if err != nil {
			return badRequestResponse(err)
		}
		return s.dedupedMutation(op, req.RequestID, func() []byte {
			err := s.engine.RegisterWorker(ctx, req.Signers, req.Worker, req.InitialWithdrawLimit)
			if err != nil {
				return errResponse(err)
			}
			return okResponse(map[string]string{"ledger_address": ledger.WorkerAddress(req.Worker).Hex()})
		})

	case "register_demander":
		req, err := ParseRegisterDemander(data)
		if err != nil {
			return badRequestResponse(err)
		}
		return s.dedupedMutation(op, req.RequestID, func() []byte {
			err := s.engine.RegisterDemander(ctx, req.Signers, req.Demander, req.InitialBalance)
			if err != nil {
				return errResponse(err)
			}
			return okResponse(map[string]string{"ledger_address": ledger.DemanderAddress(req.Demander).Hex()})
		})

	case "distribute":
		req, err := ParseDistribute(data)
		if err != nil {
			return badRequestResponse(err)
		}
		return s.dedupedMutation(op, req.RequestID, func() []byte {
			result, err := s.engine.Distribute(ctx, req.Signers, req.Demander, req.Worker, req.Amount)
			if err != nil {
				return errResponse(err)
			}
			return okResponse(result)
		})

	case "withdraw":
		req, err := ParseWithdraw(data)
		if err != nil {
			return badRequestResponse(err)
		}
		return s.dedupedMutation(op, req.RequestID, func() []byte {
			result, err := s.engine.Withdraw(ctx, req.Signers, req.Worker, req.Amount)
			if err != nil {
				return errResponse(err)
			}
			return okResponse(result)
		})

	case "get_config":
		cfg, err := s.engine.Config(ctx)
		if err != nil {
			return errResponse(err)
		}
		return okResponse(map[string]uint64{
			"token_price":      cfg.TokenPrice,
			"withdraw_percent": cfg.WithdrawPercent,
		})

	case "get_worker":
		req, err := ParseGetWorker(data)
		if err != nil {
			return badRequestResponse(err)
		}
		wrk, err := s.engine.WorkerLedger(ctx, req.Worker)
		if err != nil {
			return errResponse(err)
		}
		return okResponse(map[string]uint64{"withdraw_limit": wrk.WithdrawLimit})

	case "get_demander":
		req, err := ParseGetDemander(data)
		if err != nil {
			return badRequestResponse(err)
		}
		dem, err := s.engine.DemanderLedger(ctx, req.Demander)
		if err != nil {
			return errResponse(err)
		}
		return okResponse(map[string]uint64{"balance": dem.Balance})

	default:
		return badRequestResponse(fmt.Errorf("unknown operation %q", op))
	}
}

// dedupedMutation answers a retried request_id with the original response
// bytes instead of re-executing.
func (s *Server) dedupedMutation(op, requestID string, exec func() []byte) []byte {
	key := op + ":" + requestID
	if cached, ok := s.dedupe.Get(key); ok {
		if s.metrics != nil {
			s.metrics.RequestDedupeHits.WithLabelValues(op).Inc()
		}
		return cached
	}
	resp := exec()
	s.dedupe.Put(key, resp)
	return resp
}

func okResponse(result interface{}) []byte {
	data, err := json.Marshal(response{OK: true, Result: result})
	if err != nil {
		return []byte(`{"ok":false,"error":{"kind":"internal","message":"encode response"}}`)
	}
	return data
}

func badRequestResponse(err error) []byte {
	data, mErr := json.Marshal(response{
		OK:    false,
		Error: &errorBody{Kind: "bad_request", Message: err.Error()},
	})
	if mErr != nil {
		return []byte(`{"ok":false,"error":{"kind":"internal","message":"encode response"}}`)
	}
	return data
}

func errResponse(err error) []byte {
	data, mErr := json.Marshal(response{
		OK:    false,
		Error: &errorBody{Kind: ledger.ErrorKind(err), Message: err.Error()},
	})
	if mErr != nil {
		return []byte(`{"ok":false,"error":{"kind":"internal","message":"encode response"}}`)
	}
	return data
}

func opToken(subject string) string {
	for i := len(subject) - 1; i >= 0; i-- {
		if subject[i] == '.' {
			return subject[i+1:]
		}
	}
	return subject
}

// ConnectNATS establishes a connection with unlimited reconnects.
func ConnectNATS(url string, log zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}
