package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"danledger/internal/auth"
	"danledger/internal/event"
	"danledger/internal/ledger"
	danmath "danledger/internal/math"
	"danledger/internal/observability"
	"danledger/internal/store"
	"danledger/internal/token"
)

// DANDecimals is the decimal precision of the DAN mint created by Initialize.
const DANDecimals uint8 = 9

// Engine executes the five ledger operations. It is single-threaded: the rpc
// layer serializes invocations, and the hosting platform guarantees exclusive
// access to the touched ledgers for the duration of each operation. Every
// operation either commits fully or leaves no observable effect: ledger
// writes are staged and applied only after all checks and collaborator calls
// succeed.
type Engine struct {
	store    store.Store
	policy   auth.Policy
	vault    auth.Vault
	admin    uuid.UUID
	mint     token.MintService
	metadata token.MetadataService
	resolver token.AccountResolver

	sequence int64
	chain    *event.HashChain

	publishChan chan<- event.Envelope

	log     zerolog.Logger
	metrics *observability.Metrics
}

// Config carries the engine's collaborators. PublishChan and Metrics are
// optional; a nil channel disables outbound events.
type Config struct {
	Store    store.Store
	Policy   auth.Policy
	Vault    auth.Vault
	Admin    uuid.UUID
	Mint     token.MintService
	Metadata token.MetadataService
	Resolver token.AccountResolver

	PublishChan chan<- event.Envelope
	Logger      zerolog.Logger
	Metrics     *observability.Metrics
}

func NewEngine(cfg Config) *Engine {
	return &Engine{
		store:       cfg.Store,
		policy:      cfg.Policy,
		vault:       cfg.Vault,
		admin:       cfg.Admin,
		mint:        cfg.Mint,
		metadata:    cfg.Metadata,
		resolver:    cfg.Resolver,
		chain:       event.NewHashChain(),
		publishChan: cfg.PublishChan,
		log:         cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// Initialize creates the configuration ledger exactly once and requests mint
// and metadata creation from the collaborators. Always administrator-gated,
// regardless of the active policy. token_price = 0 is rejected here so no
// later withdrawal can hit a division fault.
func (e *Engine) Initialize(ctx context.Context, signers auth.Signers, uri, name, symbol string, tokenPrice, withdrawPercent uint64) error {
	start := time.Now()
	err := e.initialize(ctx, signers, uri, name, symbol, tokenPrice, withdrawPercent)
	e.observe("initialize", start, err)
	return err
}

func (e *Engine) initialize(ctx context.Context, signers auth.Signers, uri, name, symbol string, tokenPrice, withdrawPercent uint64) error {
	if !signers.Has(e.admin) {
		return fmt.Errorf("initialize: caller is not the administrator: %w", ledger.ErrUnauthorized)
	}
	if tokenPrice == 0 {
		return fmt.Errorf("initialize: token_price must be positive: %w", ledger.ErrInvalidConfig)
	}
	if withdrawPercent > 100 {
		return fmt.Errorf("initialize: withdraw_percent %d exceeds 100: %w", withdrawPercent, ledger.ErrInvalidConfig)
	}

	// Existence check up front: mint/metadata creation must not run for a
	// duplicate initialize.
	addr := ledger.ConfigAddress()
	if _, err := e.store.Load(ctx, addr); err == nil {
		return fmt.Errorf("initialize: configuration: %w", ledger.ErrAlreadyExists)
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("initialize: %w", err)
	}

	proof := e.vault.Proof()
	if err := e.mint.CreateMint(ctx, token.AssetDAN, DANDecimals, proof); err != nil {
		return collaboratorErr("initialize: create mint", err)
	}
	if err := e.metadata.CreateMetadata(ctx, token.AssetDAN, name, symbol, uri, proof); err != nil {
		return collaboratorErr("initialize: create metadata", err)
	}

	rec := ledger.ConfigLedger{TokenPrice: tokenPrice, WithdrawPercent: withdrawPercent}
	if err := e.store.Create(ctx, addr, ledger.KindConfig, rec.Encode()); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	e.emit(event.ConfigInitialized{
		Name:            name,
		Symbol:          symbol,
		URI:             uri,
		TokenPrice:      tokenPrice,
		WithdrawPercent: withdrawPercent,
	}, store.Write{Addr: addr, Kind: ledger.KindConfig, Data: rec.Encode()})

	e.log.Info().
		Uint64("token_price", tokenPrice).
		Uint64("withdraw_percent", withdrawPercent).
		Str("symbol", symbol).
		Msg("configuration initialized")
	return nil
}

// RegisterWorker creates a worker ledger, exactly once per identity.
func (e *Engine) RegisterWorker(ctx context.Context, signers auth.Signers, worker uuid.UUID, initialWithdrawLimit uint64) error {
	start := time.Now()
	err := e.registerWorker(ctx, signers, worker, initialWithdrawLimit)
	e.observe("register_worker", start, err)
	return err
}

func (e *Engine) registerWorker(ctx context.Context, signers auth.Signers, worker uuid.UUID, initialWithdrawLimit uint64) error {
	if err := e.policy.AuthorizeRegister(signers, worker); err != nil {
		return err
	}

	addr := ledger.WorkerAddress(worker)
	rec := ledger.WorkerLedger{WithdrawLimit: initialWithdrawLimit}
	if err := e.store.Create(ctx, addr, ledger.KindWorker, rec.Encode()); err != nil {
		return fmt.Errorf("register worker %s: %w", worker, err)
	}

	e.emit(event.LedgerRegistered{
		Kind:         ledger.KindWorker.String(),
		Owner:        worker,
		InitialValue: initialWithdrawLimit,
	}, store.Write{Addr: addr, Kind: ledger.KindWorker, Data: rec.Encode()})

	e.log.Info().Str("worker", worker.String()).Uint64("withdraw_limit", initialWithdrawLimit).Msg("worker registered")
	return nil
}

// RegisterDemander creates a demander ledger, exactly once per identity.
// Escrow top-ups after creation happen outside this core.
func (e *Engine) RegisterDemander(ctx context.Context, signers auth.Signers, demander uuid.UUID, initialBalance uint64) error {
	start := time.Now()
	err := e.registerDemander(ctx, signers, demander, initialBalance)
	e.observe("register_demander", start, err)
	return err
}

func (e *Engine) registerDemander(ctx context.Context, signers auth.Signers, demander uuid.UUID, initialBalance uint64) error {
	if err := e.policy.AuthorizeRegister(signers, demander); err != nil {
		return err
	}

	addr := ledger.DemanderAddress(demander)
	rec := ledger.DemanderLedger{Balance: initialBalance}
	if err := e.store.Create(ctx, addr, ledger.KindDemander, rec.Encode()); err != nil {
		return fmt.Errorf("register demander %s: %w", demander, err)
	}

	e.emit(event.LedgerRegistered{
		Kind:         ledger.KindDemander.String(),
		Owner:        demander,
		InitialValue: initialBalance,
	}, store.Write{Addr: addr, Kind: ledger.KindDemander, Data: rec.Encode()})

	e.log.Info().Str("demander", demander.String()).Uint64("balance", initialBalance).Msg("demander registered")
	return nil
}

// Distribute debits a demander's escrow by amount (currency units), mints
// amount * token_price DAN to the worker, and credits the worker's allowance
// by floor(amount * withdraw_percent / 100). Truncation of partial-percent
// remainders is business policy.
func (e *Engine) Distribute(ctx context.Context, signers auth.Signers, demander, worker uuid.UUID, amount uint64) (*event.DistributionExecuted, error) {
	start := time.Now()
	res, err := e.distribute(ctx, signers, demander, worker, amount)
	e.observe("distribute", start, err)
	return res, err
}

func (e *Engine) distribute(ctx context.Context, signers auth.Signers, demander, worker uuid.UUID, amount uint64) (*event.DistributionExecuted, error) {
	if err := e.policy.AuthorizeDistribute(signers, demander, worker); err != nil {
		return nil, err
	}

	cfgData, err := e.store.Load(ctx, ledger.ConfigAddress())
	if err != nil {
		return nil, fmt.Errorf("distribute: %w", err)
	}
	cfg, err := ledger.DecodeConfig(cfgData)
	if err != nil {
		return nil, fmt.Errorf("distribute: %w", err)
	}

	demAddr := ledger.DemanderAddress(demander)
	demData, err := e.store.Load(ctx, demAddr)
	if err != nil {
		return nil, fmt.Errorf("distribute: demander %s: %w", demander, err)
	}
	dem, err := ledger.DecodeDemander(demData)
	if err != nil {
		return nil, fmt.Errorf("distribute: %w", err)
	}

	wrkAddr := ledger.WorkerAddress(worker)
	wrkData, err := e.store.Load(ctx, wrkAddr)
	if err != nil {
		return nil, fmt.Errorf("distribute: worker %s: %w", worker, err)
	}
	wrk, err := ledger.DecodeWorker(wrkData)
	if err != nil {
		return nil, fmt.Errorf("distribute: %w", err)
	}

	if dem.Balance < amount {
		return nil, fmt.Errorf("distribute: demander %s holds %d, need %d: %w",
			demander, dem.Balance, amount, ledger.ErrInsufficientBalance)
	}

	// Checked, not saturating: the precondition above makes underflow
	// impossible, so a wrap here is a logic error that must fail the
	// operation.
	newBalance, err := danmath.CheckedSub(dem.Balance, amount)
	if err != nil {
		return nil, fmt.Errorf("distribute: %w", err)
	}

	// amount * token_price, then * 10^decimals: one conversion step, both
	// multiplications checked.
	tokens, err := danmath.CheckedMul(amount, cfg.TokenPrice)
	if err != nil {
		return nil, fmt.Errorf("distribute: mint amount: %w", err)
	}
	danDecimals, err := e.mint.Decimals(ctx, token.AssetDAN)
	if err != nil {
		return nil, collaboratorErr("distribute: mint decimals", err)
	}
	mintBase, err := danmath.ToBaseUnits(tokens, danDecimals)
	if err != nil {
		return nil, fmt.Errorf("distribute: mint amount: %w", err)
	}

	rawCredit, err := danmath.CheckedMul(amount, cfg.WithdrawPercent)
	if err != nil {
		return nil, fmt.Errorf("distribute: allowance credit: %w", err)
	}
	credit := rawCredit / 100
	newLimit, err := danmath.CheckedAdd(wrk.WithdrawLimit, credit)
	if err != nil {
		return nil, fmt.Errorf("distribute: allowance credit: %w", err)
	}

	workerAcct, err := e.resolver.Resolve(ctx, token.PartyHolder(worker), token.AssetDAN)
	if err != nil {
		return nil, collaboratorErr("distribute: resolve worker token account", err)
	}
	if err := e.mint.MintTo(ctx, token.AssetDAN, workerAcct, mintBase, e.vault.Proof()); err != nil {
		return nil, collaboratorErr("distribute: mint to worker", err)
	}

	demWrite := store.Write{Addr: demAddr, Kind: ledger.KindDemander, Data: ledger.DemanderLedger{Balance: newBalance}.Encode()}
	wrkWrite := store.Write{Addr: wrkAddr, Kind: ledger.KindWorker, Data: ledger.WorkerLedger{WithdrawLimit: newLimit}.Encode()}
	if err := e.store.Apply(ctx, demWrite, wrkWrite); err != nil {
		return nil, fmt.Errorf("distribute: %w", err)
	}

	if e.metrics != nil {
		e.metrics.EscrowDebited.Add(float64(amount))
		e.metrics.TokensMintedBase.Add(float64(mintBase))
		e.metrics.AllowanceCredited.Add(float64(credit))
	}

	result := &event.DistributionExecuted{
		Demander:    demander,
		Worker:      worker,
		Amount:      amount,
		MintedBase:  mintBase,
		NewBalance:  newBalance,
		NewLimit:    newLimit,
		LimitCredit: credit,
	}
	e.emit(*result, demWrite, wrkWrite)

	e.log.Info().
		Str("demander", demander.String()).
		Str("worker", worker.String()).
		Uint64("amount", amount).
		Uint64("minted_base", mintBase).
		Uint64("new_limit", newLimit).
		Msg("distribution executed")
	return result, nil
}

// Withdraw converts amount DAN tokens back into currency within the worker's
// allowance. withdraw_amount = amount / token_price truncates; a worker
// requesting a non-multiple of token_price forfeits the remainder. Both
// transfer legs are signed by the same vault authority; the administrator
// never signs vault outflows.
func (e *Engine) Withdraw(ctx context.Context, signers auth.Signers, worker uuid.UUID, amount uint64) (*event.WithdrawalExecuted, error) {
	start := time.Now()
	res, err := e.withdraw(ctx, signers, worker, amount)
	e.observe("withdraw", start, err)
	return res, err
}

func (e *Engine) withdraw(ctx context.Context, signers auth.Signers, worker uuid.UUID, amount uint64) (*event.WithdrawalExecuted, error) {
	if err := e.policy.AuthorizeWithdraw(signers, worker); err != nil {
		return nil, err
	}

	cfgData, err := e.store.Load(ctx, ledger.ConfigAddress())
	if err != nil {
		return nil, fmt.Errorf("withdraw: %w", err)
	}
	cfg, err := ledger.DecodeConfig(cfgData)
	if err != nil {
		return nil, fmt.Errorf("withdraw: %w", err)
	}

	wrkAddr := ledger.WorkerAddress(worker)
	wrkData, err := e.store.Load(ctx, wrkAddr)
	if err != nil {
		return nil, fmt.Errorf("withdraw: worker %s: %w", worker, err)
	}
	wrk, err := ledger.DecodeWorker(wrkData)
	if err != nil {
		return nil, fmt.Errorf("withdraw: %w", err)
	}

	// token_price > 0 was validated at initialize; CheckedDiv still turns a
	// corrupted configuration into a structured failure instead of a fault.
	withdrawAmount, err := danmath.CheckedDiv(amount, cfg.TokenPrice)
	if err != nil {
		return nil, fmt.Errorf("withdraw: %w", err)
	}

	if wrk.WithdrawLimit < withdrawAmount {
		return nil, fmt.Errorf("withdraw: worker %s limit %d, need %d: %w",
			worker, wrk.WithdrawLimit, withdrawAmount, ledger.ErrOutOfWithdrawLimit)
	}
	newLimit, err := danmath.CheckedSub(wrk.WithdrawLimit, withdrawAmount)
	if err != nil {
		return nil, fmt.Errorf("withdraw: %w", err)
	}

	danDecimals, err := e.mint.Decimals(ctx, token.AssetDAN)
	if err != nil {
		return nil, collaboratorErr("withdraw: mint decimals", err)
	}
	currencyDecimals, err := e.mint.Decimals(ctx, token.AssetCurrency)
	if err != nil {
		return nil, collaboratorErr("withdraw: currency decimals", err)
	}

	tokensInBase, err := danmath.ToBaseUnits(amount, danDecimals)
	if err != nil {
		return nil, fmt.Errorf("withdraw: token amount: %w", err)
	}
	currencyOutBase, err := danmath.ToBaseUnits(withdrawAmount, currencyDecimals)
	if err != nil {
		return nil, fmt.Errorf("withdraw: currency amount: %w", err)
	}

	vaultHolder := token.VaultHolder(e.vault)
	workerDAN, err := e.resolver.Resolve(ctx, token.PartyHolder(worker), token.AssetDAN)
	if err != nil {
		return nil, collaboratorErr("withdraw: resolve worker token account", err)
	}
	vaultDAN, err := e.resolver.Resolve(ctx, vaultHolder, token.AssetDAN)
	if err != nil {
		return nil, collaboratorErr("withdraw: resolve vault token account", err)
	}
	vaultCurrency, err := e.resolver.Resolve(ctx, vaultHolder, token.AssetCurrency)
	if err != nil {
		return nil, collaboratorErr("withdraw: resolve vault currency account", err)
	}
	workerCurrency, err := e.resolver.Resolve(ctx, token.PartyHolder(worker), token.AssetCurrency)
	if err != nil {
		return nil, collaboratorErr("withdraw: resolve worker currency account", err)
	}

	// One vault authority signs both legs.
	proof := e.vault.Proof()
	if err := e.mint.Transfer(ctx, token.AssetDAN, workerDAN, vaultDAN, tokensInBase, proof); err != nil {
		return nil, collaboratorErr("withdraw: transfer tokens to vault", err)
	}
	if err := e.mint.Transfer(ctx, token.AssetCurrency, vaultCurrency, workerCurrency, currencyOutBase, proof); err != nil {
		// The token leg already committed; return the tokens so a refused
		// payout leaves the worker whole.
		if rbErr := e.mint.Transfer(ctx, token.AssetDAN, vaultDAN, workerDAN, tokensInBase, proof); rbErr != nil {
			e.log.Error().
				Str("worker", worker.String()).
				Uint64("tokens_base", tokensInBase).
				Err(rbErr).
				Msg("token return after refused payout failed, tokens stranded in vault")
		}
		return nil, collaboratorErr("withdraw: transfer currency to worker", err)
	}

	wrkWrite := store.Write{Addr: wrkAddr, Kind: ledger.KindWorker, Data: ledger.WorkerLedger{WithdrawLimit: newLimit}.Encode()}
	if err := e.store.Apply(ctx, wrkWrite); err != nil {
		return nil, fmt.Errorf("withdraw: %w", err)
	}

	if e.metrics != nil {
		e.metrics.CurrencyPaidBase.Add(float64(currencyOutBase))
		e.metrics.AllowanceDebited.Add(float64(withdrawAmount))
	}

	result := &event.WithdrawalExecuted{
		Worker:           worker,
		TokenAmount:      amount,
		WithdrawAmount:   withdrawAmount,
		TokensInBase:     tokensInBase,
		CurrencyOutBase:  currencyOutBase,
		NewWithdrawLimit: newLimit,
	}
	e.emit(*result, wrkWrite)

	e.log.Info().
		Str("worker", worker.String()).
		Uint64("token_amount", amount).
		Uint64("withdraw_amount", withdrawAmount).
		Uint64("new_limit", newLimit).
		Msg("withdrawal executed")
	return result, nil
}

func collaboratorErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ledger.ErrTransferFailed, err)
}

// observe records per-operation metrics and logs failures with their kind.
func (e *Engine) observe(op string, start time.Time, err error) {
	if e.metrics != nil {
		e.metrics.OpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if err != nil {
			e.metrics.OpsRejected.WithLabelValues(op, ledger.ErrorKind(err)).Inc()
		} else {
			e.metrics.OpsApplied.WithLabelValues(op).Inc()
		}
	}
	if err != nil {
		e.log.Warn().Str("op", op).Str("kind", ledger.ErrorKind(err)).Err(err).Msg("operation rejected")
	}
}

// emit assigns a sequence, advances the hash chain over the mutated records,
// and sends the envelope non-blocking; a full channel drops the event
// (downstream consumers can re-read ledger state).
func (e *Engine) emit(payload event.Payload, writes ...store.Write) {
	seq := e.sequence
	e.sequence++

	digest := make([]byte, 0, len(writes)*64)
	for _, w := range writes {
		digest = append(digest, w.Addr[:]...)
		digest = append(digest, byte(len(w.Data)))
		digest = append(digest, w.Data...)
	}
	prevHash := e.chain.Prev()
	stateHash := e.chain.Compute(seq, digest)

	if e.publishChan == nil {
		return
	}

	env := event.Envelope{
		Sequence:       seq,
		IdempotencyKey: payload.IdempotencyKey(),
		EventType:      payload.EventType(),
		Timestamp:      time.Now().UTC(),
		StateHash:      stateHash,
		PrevHash:       prevHash,
		Payload:        payload,
	}

	select {
	case e.publishChan <- env:
	default:
		if e.metrics != nil {
			e.metrics.PublishDrops.Inc()
		}
	}
}

// GetSequence returns the next sequence the engine will assign.
func (e *Engine) GetSequence() int64 {
	return e.sequence
}

// RestoreChain resets the sequence counter and hash-chain tip, e.g. on warm
// restart from the last published envelope.
func (e *Engine) RestoreChain(sequence int64, prev [32]byte) {
	e.sequence = sequence
	e.chain.SetPrev(prev)
}
