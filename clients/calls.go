package clients

import (
	"math/big"
	"strings"

	"github.com/sam-thetutor/streamr/scval"
	"github.com/sam-thetutor/streamr/types"
)

// Contract method names.
const (
	MethodCreateStream       = "create_stream"
	MethodWithdrawStream     = "withdraw_stream"
	MethodCancelStream       = "cancel_stream"
	MethodCreateSubscription = "create_subscription"
	MethodDepositToSub       = "deposit_to_subscription"
	MethodChargeSubscription = "charge_subscription"
	MethodCancelSubscription = "cancel_subscription"

	methodGetStream          = "get_stream"
	methodGetSubscription    = "get_subscription"
	methodGetSentStreams     = "get_user_sent_streams"
	methodGetReceivedStreams = "get_user_received_streams"
	methodGetSentSubs        = "get_user_subscriptions"
	methodGetReceivedSubs    = "get_user_received_subscriptions"
	methodGetSentStreamIDs   = "get_user_sent_stream_ids"
	methodGetRcvdStreamIDs   = "get_user_received_stream_ids"
	methodGetSubIDs          = "get_user_subs_ids"
	methodGetRcvdSubIDs      = "get_user_rcvd_subs_ids"
)

// CreateStreamArgs encodes create_stream arguments in declaration order.
// Title and description are optional on-chain; empty strings encode as the
// absent option.
func CreateStreamArgs(p *types.CreateStreamParams) []scval.Val {
	recipients := make([]scval.Val, len(p.Recipients))
	for i, r := range p.Recipients {
		recipients[i] = scval.AddressVal(r)
	}
	amounts := make([]scval.Val, len(p.AmountsPerPeriod))
	for i, a := range p.AmountsPerPeriod {
		amounts[i] = scval.I128Val(a)
	}
	return []scval.Val{
		scval.AddressVal(p.Sender),
		scval.VecVal(recipients...),
		scval.AddressVal(p.TokenContract),
		scval.VecVal(amounts...),
		scval.U64Val(p.PeriodSeconds),
		scval.I128Val(p.Deposit),
		optionalTextArg(p.Title),
		optionalTextArg(p.Description),
	}
}

func WithdrawStreamArgs(id uint64, recipient string) []scval.Val {
	return []scval.Val{scval.U32Val(uint32(id)), scval.AddressVal(recipient)}
}

func CancelStreamArgs(id uint64) []scval.Val {
	return []scval.Val{scval.U32Val(uint32(id))}
}

func CreateSubscriptionArgs(p *types.CreateSubscriptionParams) []scval.Val {
	return []scval.Val{
		scval.AddressVal(p.Subscriber),
		scval.AddressVal(p.Receiver),
		scval.AddressVal(p.TokenContract),
		scval.I128Val(p.AmountPerInterval),
		scval.U64Val(p.IntervalSeconds),
		scval.U64Val(p.FirstPaymentTime),
		optionalTextArg(p.Title),
		optionalTextArg(p.Description),
	}
}

func DepositToSubscriptionArgs(id uint64, amount *big.Int) []scval.Val {
	return []scval.Val{scval.U32Val(uint32(id)), scval.I128Val(amount)}
}

func ChargeSubscriptionArgs(id uint64) []scval.Val {
	return []scval.Val{scval.U32Val(uint32(id))}
}

func CancelSubscriptionArgs(id uint64) []scval.Val {
	return []scval.Val{scval.U32Val(uint32(id))}
}

func optionalTextArg(s string) scval.Val {
	s = strings.TrimSpace(s)
	if s == "" {
		return scval.Void()
	}
	return scval.StringVal(s)
}
