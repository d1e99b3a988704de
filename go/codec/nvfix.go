package codec

import (
	"bytes"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tradewind/recall/go/recall"
)

// nvfixTimeLayout is the FIX-style UTC timestamp used for time-valued
// NVFIX tags.
const nvfixTimeLayout = "20060102-15:04:05.000"

// ParseNVFIX parses an SOH-delimited sequence of tag=value pairs into
// |target|, which must be one of the recall message types. Unknown
// tags are logged at WARN and skipped. A structurally malformed pair
// fails the whole parse: the codec never partially applies.
func ParseNVFIX(data []byte, target interface{}) error {
	switch t := target.(type) {
	case *recall.ExecutionReport:
		var scratch = *t
		if err := eachNVPair(data, func(tag, value string) error {
			return setExecReportField(&scratch, tag, value)
		}); err != nil {
			return err
		}
		*t = scratch
	case *recall.Ticket:
		var scratch = *t
		if err := eachNVPair(data, func(tag, value string) error {
			return setTicketField(&scratch, tag, value)
		}); err != nil {
			return err
		}
		*t = scratch
	case *recall.Order:
		var scratch = *t
		if err := eachNVPair(data, func(tag, value string) error {
			return setOrderField(&scratch, tag, value)
		}); err != nil {
			return err
		}
		*t = scratch
	default:
		return parseErrf(data, "unsupported NVFIX target type %T", target)
	}
	return nil
}

func eachNVPair(data []byte, apply func(tag, value string) error) error {
	for _, seg := range bytes.Split(data, []byte{SOH}) {
		if len(seg) == 0 {
			continue // Trailing SOH.
		}
		var eq = bytes.IndexByte(seg, '=')
		if eq <= 0 {
			return parseErrf(data, "malformed NVFIX pair %q", seg)
		}
		if err := apply(string(bytes.ToLower(seg[:eq])), string(seg[eq+1:])); err != nil {
			return parseErrf(data, "NVFIX tag %q: %w", seg[:eq], err)
		}
	}
	return nil
}

func setExecReportField(r *recall.ExecutionReport, tag, value string) error {
	switch tag {
	case "execid":
		r.ExecID = value
	case "exectype":
		r.ExecType = value
	case "clordid":
		r.ClOrdID = value
	case "origclordid":
		r.OrigClOrdID = value
	case "orderid":
		r.OrderID = value
	case "lastqty":
		return setInt(&r.LastQty, value)
	case "cumqty":
		return setInt(&r.CumQty, value)
	case "leavesqty":
		return setInt(&r.LeavesQty, value)
	case "lastprice":
		return setFloat(&r.LastPrice, value)
	case "avgprice":
		return setFloat(&r.AvgPrice, value)
	case "orderstate":
		r.OrderState = value
	case "transacttime":
		return setTime(&r.TransactTime, value)
	case "sendingtime":
		return setTime(&r.SendingTime, value)
	case "currency":
		r.Currency = value
	case "side":
		r.Side = value
	case "symbol":
		r.Symbol = value
	default:
		log.WithFields(log.Fields{"tag": tag, "type": "ExecutionReport"}).
			Warn("skipping unknown NVFIX tag")
	}
	return nil
}

func setTicketField(t *recall.Ticket, tag, value string) error {
	switch tag {
	case "id":
		t.ID = value
	case "currentstate":
		t.CurrentState = value
	case "recallqty":
		return setInt(&t.RecallQty, value)
	case "fillqty":
		return setInt(&t.FillQty, value)
	case "fillprice":
		return setFloat(&t.FillPrice, value)
	case "effectivedate":
		t.EffectiveDate = value
	case "currency":
		t.Currency = value
	case "ticker":
		t.Ticker = value
	case "fund":
		t.Fund = value
	case "side":
		t.Side = value
	case "updatedtime":
		return setTime(&t.UpdatedTime, value)
	default:
		log.WithFields(log.Fields{"tag": tag, "type": "Ticket"}).
			Warn("skipping unknown NVFIX tag")
	}
	return nil
}

func setOrderField(o *recall.Order, tag, value string) error {
	switch tag {
	case "orderid":
		o.OrderID = value
	case "currentstate":
		o.CurrentState = recall.OrderState(value)
	case "ordqty":
		return setInt(&o.OrdQty, value)
	case "symbol":
		o.Symbol = value
	case "account":
		o.Account = value
	case "currency":
		o.Currency = value
	case "side":
		o.Side = value
	default:
		log.WithFields(log.Fields{"tag": tag, "type": "Order"}).
			Warn("skipping unknown NVFIX tag")
	}
	return nil
}

func setInt(into *int64, value string) error {
	var v, err = strconv.ParseInt(value, 10, 64)
	if err != nil {
		return err
	}
	*into = v
	return nil
}

func setFloat(into *float64, value string) error {
	var v, err = strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	*into = v
	return nil
}

func setTime(into *time.Time, value string) error {
	var v, err = time.Parse(nvfixTimeLayout, value)
	if err != nil {
		return err
	}
	*into = v
	return nil
}

// AppendNVFIX serializes |msg| as SOH-terminated tag=value pairs onto
// |buf|. Every emitted pair is recoverable by ParseNVFIX for the same
// type. Zero-valued times are omitted.
func AppendNVFIX(buf []byte, msg interface{}) ([]byte, error) {
	switch m := msg.(type) {
	case *recall.ExecutionReport:
		buf = AppendPair(buf, "ExecID", m.ExecID)
		buf = AppendPair(buf, "ExecType", m.ExecType)
		buf = AppendPair(buf, "ClOrdID", m.ClOrdID)
		buf = AppendPair(buf, "OrigClOrdID", m.OrigClOrdID)
		buf = AppendPair(buf, "OrderID", m.OrderID)
		buf = AppendPair(buf, "LastQty", strconv.FormatInt(m.LastQty, 10))
		buf = AppendPair(buf, "CumQty", strconv.FormatInt(m.CumQty, 10))
		buf = AppendPair(buf, "LeavesQty", strconv.FormatInt(m.LeavesQty, 10))
		buf = AppendPair(buf, "LastPrice", formatPrice(m.LastPrice))
		buf = AppendPair(buf, "AvgPrice", formatPrice(m.AvgPrice))
		buf = AppendPair(buf, "OrderState", m.OrderState)
		buf = appendNVTime(buf, "TransactTime", m.TransactTime)
		buf = appendNVTime(buf, "SendingTime", m.SendingTime)
		buf = AppendPair(buf, "Currency", m.Currency)
		buf = AppendPair(buf, "Side", m.Side)
		buf = AppendPair(buf, "Symbol", m.Symbol)
	case *recall.Ticket:
		buf = AppendPair(buf, "ID", m.ID)
		buf = AppendPair(buf, "CurrentState", m.CurrentState)
		buf = AppendPair(buf, "RecallQty", strconv.FormatInt(m.RecallQty, 10))
		buf = AppendPair(buf, "FillQty", strconv.FormatInt(m.FillQty, 10))
		buf = AppendPair(buf, "FillPrice", formatPrice(m.FillPrice))
		buf = AppendPair(buf, "EffectiveDate", m.EffectiveDate)
		buf = AppendPair(buf, "Currency", m.Currency)
		buf = AppendPair(buf, "Ticker", m.Ticker)
		buf = AppendPair(buf, "Fund", m.Fund)
		buf = AppendPair(buf, "Side", m.Side)
		buf = appendNVTime(buf, "UpdatedTime", m.UpdatedTime)
	case *recall.Order:
		buf = AppendPair(buf, "OrderID", m.OrderID)
		buf = AppendPair(buf, "CurrentState", string(m.CurrentState))
		buf = AppendPair(buf, "OrdQty", strconv.FormatInt(m.OrdQty, 10))
		buf = AppendPair(buf, "Symbol", m.Symbol)
		buf = AppendPair(buf, "Account", m.Account)
		buf = AppendPair(buf, "Currency", m.Currency)
		buf = AppendPair(buf, "Side", m.Side)
	default:
		return nil, parseErrf(nil, "unsupported NVFIX message type %T", msg)
	}
	return buf, nil
}

// AppendPair appends a single SOH-terminated tag=value pair, skipping
// empty values.
func AppendPair(buf []byte, tag, value string) []byte {
	if value == "" {
		return buf
	}
	buf = append(buf, tag...)
	buf = append(buf, '=')
	buf = append(buf, value...)
	return append(buf, SOH)
}

func appendNVTime(buf []byte, tag string, t time.Time) []byte {
	if t.IsZero() {
		return buf
	}
	return AppendPair(buf, tag, t.UTC().Format(nvfixTimeLayout))
}

func formatPrice(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
