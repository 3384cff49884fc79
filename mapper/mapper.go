// Package mapper turns decoded contract responses into Stream and
// Subscription records. Responses arrive in two shapes: the "rich" shape the
// SDK produces (fields already native strings/numbers/maps) and the "raw"
// shape of tagged values needing explicit decoding. Both paths converge on
// the same record; a record whose id cannot be established is dropped
// entirely, because ids are the join key for caching and must never be
// fabricated.
package mapper

import (
	"math/big"

	"github.com/go-viper/mapstructure/v2"

	"github.com/sam-thetutor/streamr/logger"
	"github.com/sam-thetutor/streamr/metrics"
	"github.com/sam-thetutor/streamr/numeric"
	"github.com/sam-thetutor/streamr/scval"
	"github.com/sam-thetutor/streamr/types"
)

type Mapper struct {
	log  logger.Logger
	rec  metrics.Recorder
	norm *numeric.Normalizer
}

func New(log logger.Logger, rec metrics.Recorder) *Mapper {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Mapper{log: log, rec: rec, norm: numeric.NewNormalizer(log, rec)}
}

// wire shapes for the rich path. Amounts stay `any` because the SDK may
// deliver them as strings, numbers, or hi/lo objects; the normalizer sorts
// that out.
type streamWire struct {
	ID             any            `mapstructure:"id"`
	Sender         string         `mapstructure:"sender"`
	Recipients     []string       `mapstructure:"recipients"`
	TokenContract  string         `mapstructure:"token_contract"`
	RatePerSecond  map[string]any `mapstructure:"recipient_rate_per_second"`
	LastWithdraw   map[string]any `mapstructure:"recipient_last_withdraw"`
	TotalWithdrawn map[string]any `mapstructure:"recipient_total_withdrawn"`
	Deposit        any            `mapstructure:"deposit"`
	StartTime      any            `mapstructure:"start_time"`
	IsActive       bool           `mapstructure:"is_active"`
	Title          any            `mapstructure:"title"`
	Description    any            `mapstructure:"description"`
}

type subscriptionWire struct {
	ID                any    `mapstructure:"id"`
	Subscriber        string `mapstructure:"subscriber"`
	Receiver          string `mapstructure:"receiver"`
	TokenContract     string `mapstructure:"token_contract"`
	AmountPerInterval any    `mapstructure:"amount_per_interval"`
	IntervalSeconds   any    `mapstructure:"interval_seconds"`
	NextPaymentTime   any    `mapstructure:"next_payment_time"`
	Active            bool   `mapstructure:"active"`
	Balance           any    `mapstructure:"balance"`
	Title             any    `mapstructure:"title"`
	Description       any    `mapstructure:"description"`
}

// Stream maps an input of either shape to a Stream record. ok is false when
// the record must be dropped.
func (m *Mapper) Stream(input any) (*types.Stream, bool) {
	switch v := input.(type) {
	case nil:
		return nil, false
	case scval.Val:
		return m.streamFromVal(v)
	case *types.Stream:
		return v, v != nil
	}

	var w streamWire
	if err := mapstructure.Decode(input, &w); err != nil {
		m.log.Debug("rich stream decode failed, falling back to raw fields", map[string]any{"error": err.Error()})
		return m.streamFromRaw(input)
	}
	return m.streamFromWire(w)
}

// Subscription maps an input of either shape to a Subscription record.
func (m *Mapper) Subscription(input any) (*types.Subscription, bool) {
	switch v := input.(type) {
	case nil:
		return nil, false
	case scval.Val:
		return m.subscriptionFromVal(v)
	case *types.Subscription:
		return v, v != nil
	}

	var w subscriptionWire
	if err := mapstructure.Decode(input, &w); err != nil {
		m.log.Debug("rich subscription decode failed, falling back to raw fields", map[string]any{"error": err.Error()})
		return m.subscriptionFromRaw(input)
	}
	return m.subscriptionFromWire(w)
}

func (m *Mapper) streamFromWire(w streamWire) (*types.Stream, bool) {
	id, ok := m.entityID(w.ID)
	if !ok {
		return m.dropped("stream", w.ID)
	}

	s := &types.Stream{
		ID:             id,
		Sender:         w.Sender,
		Recipients:     w.Recipients,
		TokenContract:  w.TokenContract,
		RatePerSecond:  m.amountMap(w.RatePerSecond),
		LastWithdraw:   m.timeMap(w.LastWithdraw),
		TotalWithdrawn: m.amountMap(w.TotalWithdrawn),
		Deposit:        m.norm.BigInt(w.Deposit),
		StartTime:      m.timestamp(w.StartTime),
		IsActive:       w.IsActive,
		Title:          m.optionalText(w.Title),
		Description:    m.optionalText(w.Description),
	}
	return m.finishStream(s)
}

func (m *Mapper) streamFromVal(v scval.Val) (*types.Stream, bool) {
	fields, err := scval.Fields(v)
	if err != nil {
		m.log.Warn("stream response is not a map value", map[string]any{"error": err.Error()})
		return m.dropped("stream", nil)
	}

	id, err := fields["id"].Uint64()
	if err != nil {
		return m.dropped("stream", fields["id"].String())
	}

	s := &types.Stream{
		ID:             id,
		Sender:         scval.DecodeAddress(fields["sender"]),
		Recipients:     scval.DecodeAddressVec(fields["recipients"]),
		TokenContract:  scval.DecodeAddress(fields["token_contract"]),
		RatePerSecond:  m.valAmountMap(fields["recipient_rate_per_second"]),
		LastWithdraw:   m.valTimeMap(fields["recipient_last_withdraw"]),
		TotalWithdrawn: m.valAmountMap(fields["recipient_total_withdrawn"]),
		Deposit:        m.valAmount(fields["deposit"]),
		StartTime:      m.valTimestamp(fields["start_time"]),
		IsActive:       fields["is_active"].Bool,
		Title:          m.valOptionalText(fields["title"]),
		Description:    m.valOptionalText(fields["description"]),
	}
	return m.finishStream(s)
}

func (m *Mapper) streamFromRaw(input any) (*types.Stream, bool) {
	obj, ok := input.(map[string]any)
	if !ok {
		return m.dropped("stream", nil)
	}
	w := streamWire{
		ID:            obj["id"],
		Sender:        m.text(obj["sender"]),
		Recipients:    m.textSlice(obj["recipients"]),
		TokenContract: m.text(obj["token_contract"]),
		Deposit:       obj["deposit"],
		StartTime:     obj["start_time"],
		Title:         obj["title"],
		Description:   obj["description"],
	}
	if active, ok := obj["is_active"].(bool); ok {
		w.IsActive = active
	}
	if rates, ok := obj["recipient_rate_per_second"].(map[string]any); ok {
		w.RatePerSecond = rates
	}
	if last, ok := obj["recipient_last_withdraw"].(map[string]any); ok {
		w.LastWithdraw = last
	}
	if totals, ok := obj["recipient_total_withdrawn"].(map[string]any); ok {
		w.TotalWithdrawn = totals
	}
	return m.streamFromWire(w)
}

func (m *Mapper) subscriptionFromWire(w subscriptionWire) (*types.Subscription, bool) {
	id, ok := m.entityID(w.ID)
	if !ok {
		return m.droppedSub(w.ID)
	}

	sub := &types.Subscription{
		ID:                id,
		Subscriber:        w.Subscriber,
		Receiver:          w.Receiver,
		TokenContract:     w.TokenContract,
		AmountPerInterval: m.norm.BigInt(w.AmountPerInterval),
		IntervalSeconds:   m.timestamp(w.IntervalSeconds),
		NextPaymentTime:   m.timestamp(w.NextPaymentTime),
		Active:            w.Active,
		Balance:           m.norm.BigInt(w.Balance),
		Title:             m.optionalText(w.Title),
		Description:       m.optionalText(w.Description),
	}
	return sub, true
}

func (m *Mapper) subscriptionFromVal(v scval.Val) (*types.Subscription, bool) {
	fields, err := scval.Fields(v)
	if err != nil {
		m.log.Warn("subscription response is not a map value", map[string]any{"error": err.Error()})
		return m.droppedSub(nil)
	}

	id, err := fields["id"].Uint64()
	if err != nil {
		return m.droppedSub(fields["id"].String())
	}

	sub := &types.Subscription{
		ID:                id,
		Subscriber:        scval.DecodeAddress(fields["subscriber"]),
		Receiver:          scval.DecodeAddress(fields["receiver"]),
		TokenContract:     scval.DecodeAddress(fields["token_contract"]),
		AmountPerInterval: m.valAmount(fields["amount_per_interval"]),
		IntervalSeconds:   m.valTimestamp(fields["interval_seconds"]),
		NextPaymentTime:   m.valTimestamp(fields["next_payment_time"]),
		Active:            fields["active"].Bool,
		Balance:           m.valAmount(fields["balance"]),
		Title:             m.valOptionalText(fields["title"]),
		Description:       m.valOptionalText(fields["description"]),
	}
	return sub, true
}

func (m *Mapper) subscriptionFromRaw(input any) (*types.Subscription, bool) {
	obj, ok := input.(map[string]any)
	if !ok {
		return m.droppedSub(nil)
	}
	w := subscriptionWire{
		ID:                obj["id"],
		Subscriber:        m.text(obj["subscriber"]),
		Receiver:          m.text(obj["receiver"]),
		TokenContract:     m.text(obj["token_contract"]),
		AmountPerInterval: obj["amount_per_interval"],
		IntervalSeconds:   obj["interval_seconds"],
		NextPaymentTime:   obj["next_payment_time"],
		Balance:           obj["balance"],
		Title:             obj["title"],
		Description:       obj["description"],
	}
	if active, ok := obj["active"].(bool); ok {
		w.Active = active
	}
	return m.subscriptionFromWire(w)
}

// finishStream applies the contract's read defaults and mirrors the primary
// recipient into the single-recipient convenience fields.
func (m *Mapper) finishStream(s *types.Stream) (*types.Stream, bool) {
	if s.RatePerSecond == nil {
		s.RatePerSecond = map[string]*big.Int{}
	}
	if s.LastWithdraw == nil {
		s.LastWithdraw = map[string]uint64{}
	}
	if s.TotalWithdrawn == nil {
		s.TotalWithdrawn = map[string]*big.Int{}
	}
	if s.Deposit == nil {
		s.Deposit = new(big.Int)
	}
	if len(s.Recipients) > 0 {
		s.Recipient = s.Recipients[0]
		s.PrimaryRate = s.Rate(s.Recipient)
	} else {
		s.PrimaryRate = new(big.Int)
	}
	return s, true
}
