package server

import (
	"github.com/sam-thetutor/streamr/accrual"
	"github.com/sam-thetutor/streamr/numeric"
	"github.com/sam-thetutor/streamr/types"
)

// StreamView is the wire shape of a stream plus its projection. Every
// amount is a display string.
type StreamView struct {
	ID            uint64   `json:"id"`
	Sender        string   `json:"sender"`
	Recipient     string   `json:"recipient"`
	Recipients    []string `json:"recipients"`
	TokenContract string   `json:"tokenContract"`
	Deposit       string   `json:"deposit"`
	StartTime     string   `json:"startTime"`
	IsActive      bool     `json:"isActive"`
	Title         string   `json:"title,omitempty"`
	Description   string   `json:"description,omitempty"`

	AsOf                uint64               `json:"asOf"`
	TotalStreamed       string               `json:"totalStreamed"`
	RemainingDeposit    string               `json:"remainingDeposit"`
	Progress            string               `json:"progress"`
	Refundable          string               `json:"refundable"`
	EstimatedCompletion string               `json:"estimatedCompletion,omitempty"`
	RecipientStates     []RecipientStateView `json:"recipientStates"`
}

type RecipientStateView struct {
	Address        string `json:"address"`
	RatePerSecond  string `json:"ratePerSecond"`
	TotalWithdrawn string `json:"totalWithdrawn"`
	Accrued        string `json:"accrued"`
	Withdrawable   string `json:"withdrawable"`
	LastWithdraw   string `json:"lastWithdraw"`
}

type SubscriptionView struct {
	ID                uint64 `json:"id"`
	Subscriber        string `json:"subscriber"`
	Receiver          string `json:"receiver"`
	TokenContract     string `json:"tokenContract"`
	AmountPerInterval string `json:"amountPerInterval"`
	IntervalSeconds   uint64 `json:"intervalSeconds"`
	NextPaymentTime   string `json:"nextPaymentTime"`
	Balance           string `json:"balance"`
	Active            bool   `json:"active"`
	Title             string `json:"title,omitempty"`
	Description       string `json:"description,omitempty"`

	AsOf             uint64 `json:"asOf"`
	IsDue            bool   `json:"isDue"`
	TimeUntilNext    string `json:"timeUntilNext"`
	DueIntervals     uint64 `json:"dueIntervals"`
	ProjectedCharge  string `json:"projectedCharge"`
	CoveredIntervals uint64 `json:"coveredIntervals"`
	Refundable       string `json:"refundable"`
}

func streamView(st *types.Stream, p accrual.StreamProjection) StreamView {
	v := StreamView{
		ID:               st.ID,
		Sender:           st.Sender,
		Recipient:        st.Recipient,
		Recipients:       st.Recipients,
		TokenContract:    st.TokenContract,
		Deposit:          numeric.FormatAmount(st.Deposit),
		StartTime:        numeric.FormatTimestamp(st.StartTime),
		IsActive:         st.IsActive,
		Title:            st.Title,
		Description:      st.Description,
		AsOf:             p.AsOf,
		TotalStreamed:    numeric.FormatAmount(p.TotalStreamed),
		RemainingDeposit: numeric.FormatAmount(p.RemainingDeposit),
		Progress:         numeric.FormatProgress(p.ProgressBps),
		Refundable:       numeric.FormatAmount(p.Refundable),
	}
	if p.HasCompletion {
		v.EstimatedCompletion = numeric.FormatTimestamp(p.EstimatedCompletion)
	}
	v.RecipientStates = make([]RecipientStateView, 0, len(p.Recipients))
	for _, rp := range p.Recipients {
		v.RecipientStates = append(v.RecipientStates, RecipientStateView{
			Address:        rp.Address,
			RatePerSecond:  numeric.FormatAmount(rp.Rate),
			TotalWithdrawn: numeric.FormatAmount(rp.TotalWithdrawn),
			Accrued:        numeric.FormatAmount(rp.Accrued),
			Withdrawable:   numeric.FormatAmount(rp.Withdrawable),
			LastWithdraw:   numeric.FormatTimestamp(rp.LastWithdraw),
		})
	}
	return v
}

func subscriptionView(sub *types.Subscription, p accrual.SubscriptionProjection) SubscriptionView {
	return SubscriptionView{
		ID:                sub.ID,
		Subscriber:        sub.Subscriber,
		Receiver:          sub.Receiver,
		TokenContract:     sub.TokenContract,
		AmountPerInterval: numeric.FormatAmount(sub.AmountPerInterval),
		IntervalSeconds:   sub.IntervalSeconds,
		NextPaymentTime:   numeric.FormatTimestamp(sub.NextPaymentTime),
		Balance:           numeric.FormatAmount(sub.Balance),
		Active:            sub.Active,
		Title:             sub.Title,
		Description:       sub.Description,
		AsOf:              p.AsOf,
		IsDue:             p.IsDue,
		TimeUntilNext:     numeric.FormatDuration(p.TimeUntilNext),
		DueIntervals:      p.DueIntervals,
		ProjectedCharge:   numeric.FormatAmount(p.ProjectedCharge),
		CoveredIntervals:  p.CoveredIntervals,
		Refundable:        numeric.FormatAmount(p.Refundable),
	}
}
