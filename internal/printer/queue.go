package printer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// publisher is satisfied by *amqp.Channel.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueuePrinter publishes receipts as JSON to a durable RabbitMQ queue that
// the print station consumes.
type QueuePrinter struct {
	ch    publisher
	queue string
}

func NewQueuePrinter(ch publisher, queue string) *QueuePrinter {
	return &QueuePrinter{ch: ch, queue: queue}
}

func (p *QueuePrinter) PrintReceipt(ctx context.Context, r Receipt) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		MessageId:    r.OrderID,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish receipt #%d: %w", r.OrderNumber, err)
	}
	return nil
}

// QueueConn owns the broker connection behind a QueuePrinter. A session that
// the broker closed, or that failed a publish, is replaced on the next publish.
type QueueConn struct {
	dial func() (*queueSession, error)

	mu   sync.Mutex
	sess *queueSession
}

type queueSession struct {
	pub    publisher
	closed <-chan *amqp.Error
	close  func()
}

func (s *queueSession) alive() bool {
	select {
	case <-s.closed:
		return false
	default:
		return true
	}
}

// DialQueue connects to the broker and declares the print queue.
func DialQueue(url, queue string) (*QueueConn, error) {
	return newQueueConn(func() (*queueSession, error) { return dialSession(url, queue) })
}

func newQueueConn(dial func() (*queueSession, error)) (*QueueConn, error) {
	sess, err := dial()
	if err != nil {
		return nil, err
	}
	return &QueueConn{dial: dial, sess: sess}, nil
}

func dialSession(url, queue string) (*queueSession, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	// A connection drop closes its channels too, so watching the channel covers both.
	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	return &queueSession{
		pub:    ch,
		closed: closed,
		close: func() {
			_ = ch.Close()
			_ = conn.Close()
		},
	}, nil
}

// PublishWithContext publishes on the current session, redialing first when
// the previous one is gone.
func (c *QueueConn) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil && !c.sess.alive() {
		log.Printf("WARN: print queue connection closed, reconnecting")
		c.sess.close()
		c.sess = nil
	}
	if c.sess == nil {
		sess, err := c.dial()
		if err != nil {
			return fmt.Errorf("reconnect print queue: %w", err)
		}
		c.sess = sess
	}

	if err := c.sess.pub.PublishWithContext(ctx, exchange, key, mandatory, immediate, msg); err != nil {
		c.sess.close()
		c.sess = nil
		return err
	}
	return nil
}

func (c *QueueConn) Printer(queue string) *QueuePrinter {
	return NewQueuePrinter(c, queue)
}

func (c *QueueConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil {
		c.sess.close()
		c.sess = nil
	}
}
