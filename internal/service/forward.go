package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/charmbracelet/log"
	"github.com/exception-notifier/backend/internal/client"
	"github.com/exception-notifier/backend/internal/metrics"
)

// ErrInvalidPayload - 요청 body가 JSON이 아님
var ErrInvalidPayload = errors.New("request body is not valid JSON")

// rawPoster - Webhook 원문 전송 인터페이스
type rawPoster interface {
	PostRaw(ctx context.Context, payload []byte) (*client.WebhookResponse, error)
}

// ForwardService - 임의의 JSON을 {"text": "<json>"}으로 감싸 Slack에 전달
type ForwardService struct {
	poster  rawPoster
	metrics *metrics.Metrics
}

func NewForwardService(poster rawPoster, m *metrics.Metrics) *ForwardService {
	return &ForwardService{poster: poster, metrics: m}
}

// Forward - body를 텍스트 메시지로 감싸 전송하고 Webhook 응답을 그대로 반환
//
// 2xx 이외의 응답도 에러가 아니며 호출자에게 그대로 전달된다.
func (s *ForwardService) Forward(ctx context.Context, body []byte) (*client.WebhookResponse, error) {
	payload, err := BuildForwardPayload(body)
	if err != nil {
		s.metrics.ObserveForward("invalid")
		return nil, err
	}

	resp, err := s.poster.PostRaw(ctx, payload)
	if err != nil {
		s.metrics.ObserveForward("failed")
		s.metrics.ObserveDelivery("forward", 0)
		return nil, fmt.Errorf("failed to forward payload: %w", err)
	}
	s.metrics.ObserveDelivery("forward", resp.StatusCode)

	if !resp.OK() {
		s.metrics.ObserveForward("rejected")
		log.Error("slack webhook rejected forwarded payload", "status", resp.StatusCode, "body", strings.TrimSpace(string(resp.Body)))
		return resp, nil
	}
	s.metrics.ObserveForward("forwarded")
	return resp, nil
}

// BuildForwardPayload - {"text": "<body를 직렬화한 문자열>"} 생성
// body와 감싸는 객체 모두 FormatSpacedJSON 형식으로 직렬화된다.
func BuildForwardPayload(body []byte) ([]byte, error) {
	text, err := FormatSpacedJSON(body)
	if err != nil {
		return nil, err
	}
	envelope, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	out, err := FormatSpacedJSON(envelope)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// FormatSpacedJSON - JSON 문서를 ", " / ": " 구분자와 ASCII 전용 문자열로 다시 직렬화
//
// 객체 키 순서는 입력 순서를 유지하고, 중복 키는 처음 위치에 마지막 값을 쓴다.
// 비ASCII 문자는 \uXXXX(소문자 hex)로, 정수는 그대로,
// 실수는 최단 표현(지수 -4 이상 16 미만은 고정소수점)으로 출력한다.
func FormatSpacedJSON(data []byte) (string, error) {
	if !json.Valid(data) {
		return "", ErrInvalidPayload
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeOrdered(dec)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var b strings.Builder
	if err := writeSpaced(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

// orderedObject - 키 삽입 순서를 유지하는 JSON 객체
type orderedObject struct {
	keys   []string
	values map[string]any
}

func decodeOrdered(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch d {
	case '{':
		obj := &orderedObject{values: make(map[string]any)}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", kt)
			}
			val, err := decodeOrdered(dec)
			if err != nil {
				return nil, err
			}
			if _, dup := obj.values[key]; !dup {
				obj.keys = append(obj.keys, key)
			}
			obj.values[key] = val
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		items := []any{}
		for dec.More() {
			val, err := decodeOrdered(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", d)
	}
}

func writeSpaced(b *strings.Builder, v any) error {
	switch v := v.(type) {
	case *orderedObject:
		b.WriteByte('{')
		for i, key := range v.keys {
			if i > 0 {
				b.WriteString(", ")
			}
			writeASCIIString(b, key)
			b.WriteString(": ")
			if err := writeSpaced(b, v.values[key]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := writeSpaced(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case string:
		writeASCIIString(b, v)
	case json.Number:
		num, err := formatNumber(v)
		if err != nil {
			return err
		}
		b.WriteString(num)
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case nil:
		b.WriteString("null")
	default:
		return fmt.Errorf("%w: unexpected value %T", ErrInvalidPayload, v)
	}
	return nil
}

func writeASCIIString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			switch {
			case r < 0x20 || (r > 0x7e && r <= 0xffff):
				fmt.Fprintf(b, `\u%04x`, r)
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				fmt.Fprintf(b, `\u%04x\u%04x`, hi, lo)
			default:
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

func formatNumber(n json.Number) (string, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		// 정수: "-0"만 정규화
		if s == "-0" {
			return "0", nil
		}
		return s, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return "", fmt.Errorf("%w: bad number %q", ErrInvalidPayload, s)
	}
	switch {
	case math.IsInf(f, 1):
		return "Infinity", nil
	case math.IsInf(f, -1):
		return "-Infinity", nil
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil {
		return "", fmt.Errorf("%w: bad number %q", ErrInvalidPayload, s)
	}
	if exp < -4 || exp >= 16 {
		return sci, nil
	}
	fixed := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(fixed, ".") {
		fixed += ".0"
	}
	return fixed, nil
}
