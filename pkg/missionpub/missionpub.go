package missionpub

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const pubTimeout = 10 * time.Second

type brokerConfig struct {
	broker string
	port   int
	topic  string
	user   string
	passwd string
	cafile string
	scheme string
	secure bool
}

func (b brokerConfig) url() string {
	mpath := ""
	if b.scheme == "ws" || b.scheme == "wss" {
		mpath = "/mqtt"
	}
	return fmt.Sprintf("%s://%s:%d%s", b.scheme, b.broker, b.port, mpath)
}

// parseURI decodes mqtt://[user[:pass]@]broker[:port]/topic[?cafile=file]
func parseURI(uri string) (brokerConfig, error) {
	var b brokerConfig
	u, err := url.Parse(uri)
	if err != nil {
		return b, fmt.Errorf("broker uri: %w", err)
	}
	b.broker = u.Hostname()
	b.port, _ = strconv.Atoi(u.Port())
	if len(u.Path) > 0 {
		b.topic = u.Path[1:]
	}
	if up := u.User; up != nil {
		b.user = up.Username()
		b.passwd, _ = up.Password()
	}
	if ca := u.Query()["cafile"]; len(ca) > 0 {
		b.cafile = ca[0]
	}
	if b.broker == "" {
		b.broker = "broker.emqx.io"
	}
	if b.topic == "" {
		b.topic = fmt.Sprintf("org/mwptools/mqtt/missions/_%x", rand.Int())
		slog.Info("using random topic", "topic", b.topic)
	}

	b.scheme = "tcp"
	if b.cafile != "" {
		b.scheme = "ssl"
		b.secure = true
	}
	switch u.Scheme {
	case "ws":
		b.scheme = "ws"
	case "wss":
		b.scheme = "wss"
		b.secure = true
	case "mqtts", "ssl":
		b.scheme = "ssl"
		b.secure = true
	case "mqtt", "tcp", "":
	default:
		return b, fmt.Errorf("broker uri: unsupported scheme %q", u.Scheme)
	}
	if b.port == 0 {
		switch b.scheme {
		case "ssl":
			b.port = 8883
		case "ws":
			b.port = 8083
		case "wss":
			b.port = 8084
		default:
			b.port = 1883
		}
	}
	return b, nil
}

func newTlsConfig(cafile string) (*tls.Config, error) {
	tlsconf := &tls.Config{ClientAuth: tls.NoClientCert}
	if cafile != "" {
		certpool := x509.NewCertPool()
		ca, err := os.ReadFile(cafile)
		if err != nil {
			return nil, err
		}
		certpool.AppendCertsFromPEM(ca)
		tlsconf.RootCAs = certpool
	}
	if len(os.Getenv("NOVERIFYSSL")) > 0 {
		tlsconf.InsecureSkipVerify = true
	}
	return tlsconf, nil
}

type MQTTClient struct {
	client mqtt.Client
	topic  string
}

func NewMQTTClient(uri string) (*MQTTClient, error) {
	b, err := parseURI(uri)
	if err != nil {
		return nil, err
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(b.url())
	if b.secure {
		tlsconf, err := newTlsConfig(b.cafile)
		if err != nil {
			return nil, fmt.Errorf("tls: %w", err)
		}
		opts.SetTLSConfig(tlsconf)
	}
	opts.SetClientID(fmt.Sprintf("%x", rand.Int63()))
	opts.SetUsername(b.user)
	opts.SetPassword(b.passwd)
	opts.SetConnectTimeout(pubTimeout)
	opts.OnConnect = func(mqtt.Client) {
		slog.Debug("mqtt connected", "broker", b.broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		slog.Warn("mqtt connection lost", "error", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(pubTimeout) {
		return nil, errors.New("mqtt: connect timed out")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: %w", err)
	}
	return &MQTTClient{client: client, topic: b.topic}, nil
}

func (m *MQTTClient) Topic() string {
	return m.topic
}

// Publish sends the mission document as a retained message
func (m *MQTTClient) Publish(payload []byte) error {
	token := m.client.Publish(m.topic, 1, true, payload)
	if !token.WaitTimeout(pubTimeout) {
		return errors.New("mqtt: publish timed out")
	}
	return token.Error()
}

func (m *MQTTClient) Close() {
	m.client.Disconnect(250)
}
