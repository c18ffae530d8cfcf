// Package mqtt carries frames through an MQTT broker.
//
// A device named N uses these topics under the broker URL path prefix:
//
//	N/meta    retained device description, cleared by the will
//	N/peer    companion presence, "1" while attached
//	N/rx      command frames to the device
//	N/tx      heartbeat frames from the device
//	N/report  protobuf telemetry reports
package mqtt

import (
	"net/url"
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// Handler is the callback when a message is received.
type Handler func(topic string, payload []byte)

// ConnectHandler is to handle connect/disconnect events.
type ConnectHandler func(*Queue)

// Queue wraps the MQTT client with prefixed topics and handlers which
// survive reconnects.
type Queue struct {
	Client       paho.Client
	TopicPrefix  string
	OnConnect    ConnectHandler
	OnDisconnect ConnectHandler

	lock sync.RWMutex
	subs map[string][]*Subscription
}

// Subscription is a subscribed topic filter.
type Subscription struct {
	Token paho.Token

	queue   *Queue
	filter  string
	handler Handler
}

// MatchTopic matches topic with a filter which may contain + and a
// trailing #.
func MatchTopic(topic, filter string) bool {
	levels, patterns := strings.Split(topic, "/"), strings.Split(filter, "/")
	for i, p := range patterns {
		if p == "#" && i+1 == len(patterns) {
			return true
		}
		if i >= len(levels) || (p != "+" && p != levels[i]) {
			return false
		}
	}
	return len(levels) == len(patterns)
}

// ClientOptionsFromURL creates ClientOptions from URL. The URL path is
// the topic prefix and the client-id query parameter sets the client id.
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	scheme := u.Scheme
	if scheme == "" || scheme == "mqtt" {
		scheme = "tcp"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(scheme + "://" + u.Host).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	if clientID := u.Query().Get("client-id"); clientID != "" {
		opts.SetClientID(clientID)
	}
	return opts, strings.TrimPrefix(u.Path, "/"), nil
}

// NewQueue creates Queue.
func NewQueue(options *paho.ClientOptions, topicPrefix string) *Queue {
	q := &Queue{TopicPrefix: topicPrefix}
	options.SetOnConnectHandler(q.OnConnectHandler)
	options.SetConnectionLostHandler(q.ConnectionLostHandler)
	q.Client = paho.NewClient(options)
	return q
}

// NewQueueFromURL creates Queue from URL.
func NewQueueFromURL(brokerURL string) (*Queue, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return NewQueue(opts, topicPrefix), nil
}

// Connect connects the client.
func (q *Queue) Connect() paho.Token {
	return q.Client.Connect()
}

// Close implements io.Closer.
func (q *Queue) Close() error {
	q.Client.Disconnect(250)
	return nil
}

// Sub subscribes a topic filter.
func (q *Queue) Sub(filter string, handler Handler) *Subscription {
	sub := &Subscription{queue: q, filter: filter, handler: handler}
	q.lock.Lock()
	if q.subs == nil {
		q.subs = make(map[string][]*Subscription)
	}
	first := len(q.subs[filter]) == 0
	q.subs[filter] = append(q.subs[filter], sub)
	q.lock.Unlock()

	if first {
		glog.V(2).Infof("SUB %q", q.TopicPrefix+filter)
		sub.Token = q.Client.Subscribe(q.TopicPrefix+filter, 0, q.handlerOf(filter))
	}
	return sub
}

// Pub publishes to a topic.
func (q *Queue) Pub(topic string, payload []byte) paho.Token {
	return q.PubWith(topic, payload, 0, false)
}

// PubWith publishes with QoS and retain settings.
func (q *Queue) PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token {
	return q.Client.Publish(q.TopicPrefix+topic, qos, retain, payload)
}

// Resubscribe subscribes all filters again, used after connecting.
func (q *Queue) Resubscribe() []paho.Token {
	q.lock.RLock()
	filters := make([]string, 0, len(q.subs))
	for filter := range q.subs {
		filters = append(filters, filter)
	}
	q.lock.RUnlock()
	tokens := make([]paho.Token, 0, len(filters))
	for _, filter := range filters {
		glog.V(2).Infof("SUB %q", q.TopicPrefix+filter)
		tokens = append(tokens, q.Client.Subscribe(q.TopicPrefix+filter, 0, q.handlerOf(filter)))
	}
	return tokens
}

// OnConnectHandler is the default implementation of paho.OnConnectHandler.
func (q *Queue) OnConnectHandler(paho.Client) {
	glog.Info("mqtt: connected")
	q.Resubscribe()
	if h := q.OnConnect; h != nil {
		h(q)
	}
}

// ConnectionLostHandler is the default implementation of paho.ConnectLostHandler.
func (q *Queue) ConnectionLostHandler(_ paho.Client, err error) {
	glog.Warningf("mqtt: connection lost: %v", err)
	if h := q.OnDisconnect; h != nil {
		h(q)
	}
}

// handlerOf delivers messages of one broker subscription to the handlers
// of that filter only, so overlapping filters see a message once each.
func (q *Queue) handlerOf(filter string) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		q.dispatch(filter, msg)
	}
}

func (q *Queue) dispatch(filter string, msg paho.Message) {
	topic := msg.Topic()
	if !strings.HasPrefix(topic, q.TopicPrefix) {
		return
	}
	glog.V(4).Infof("RCV %q", topic)
	topic = topic[len(q.TopicPrefix):]
	if !MatchTopic(topic, filter) {
		return
	}
	q.lock.RLock()
	subs := q.subs[filter]
	handlers := make([]Handler, 0, len(subs))
	for _, sub := range subs {
		handlers = append(handlers, sub.handler)
	}
	q.lock.RUnlock()
	payload := msg.Payload()
	for _, h := range handlers {
		h(topic, payload)
	}
}

// Close unsubscribes the handler. The filter is unsubscribed from the
// broker when its last handler goes.
func (s *Subscription) Close() error {
	q := s.queue
	q.lock.Lock()
	subs := q.subs[s.filter]
	for i, sub := range subs {
		if sub == s {
			subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	last := len(subs) == 0
	if last {
		delete(q.subs, s.filter)
	} else {
		q.subs[s.filter] = subs
	}
	q.lock.Unlock()
	if !last {
		return nil
	}
	glog.V(2).Infof("UNSUB %q", q.TopicPrefix+s.filter)
	token := q.Client.Unsubscribe(q.TopicPrefix + s.filter)
	token.Wait()
	return token.Error()
}
