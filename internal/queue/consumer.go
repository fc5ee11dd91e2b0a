package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/glazia/storefront/internal/logx"
)

// DefaultLogPath is where StartAdminLoginConsumer appends audit lines.
var DefaultLogPath = filepath.Join("logs", "admin-login.log")

// StartAdminLoginConsumer consumes the admin.login queue and appends one
// line per event to logPath. It reconnects with exponential backoff and
// returns only when ctx is cancelled.
func StartAdminLoginConsumer(ctx context.Context, url, logPath string) error {
	lg := logx.With("login-consumer")
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			lg.Warn().Err(err).Dur("retry_in", backoff).Msg("dial broker failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, logPath)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lg.Warn().Err(err).Msg("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logPath string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logx.Warn().Err(err).Msg("login-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(AdminLoginQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(AdminLoginQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := appendEvent(logPath, d.Body); err != nil {
				logx.Warn().Err(err).Msg("login-consumer: handle message failed")
				_ = d.Nack(false, false) // do not requeue
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func appendEvent(logPath string, body []byte) error {
	var ev AdminLoginEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return writeLine(f, ev)
}

func writeLine(w io.Writer, ev AdminLoginEvent) error {
	outcome := "failed"
	if ev.Success {
		outcome = "ok"
	}
	_, err := fmt.Fprintf(w, "[%s] Admin login %s | username=%q | admin_id=%s | role=%s | ip=%s | ua=%q\n",
		ev.At, outcome, ev.Username, dash(ev.AdminID), dash(ev.Role), dash(ev.RemoteIP), ev.UserAgent)
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
