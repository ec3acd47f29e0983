// kitchen-feed читает чеки из Kafka и печатает кухонные тикеты.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
	"github.com/vladislavdragonenkov/concessions/internal/messaging/kafka"
)

type config struct {
	brokers    []string
	groupID    string
	topic      string
	dlqTopic   string
	retries    int
	fromOldest bool
}

func parseConfig(fs *flag.FlagSet, args []string, getenv func(string) string) (config, error) {
	var (
		cfg     config
		brokers string
	)
	fs.StringVar(&brokers, "brokers", "", "comma-separated Kafka brokers (fallback: KAFKA_BROKERS)")
	fs.StringVar(&cfg.groupID, "group", "kitchen-feed", "consumer group id")
	fs.StringVar(&cfg.topic, "topic", kafka.TopicReceipts, "receipts topic")
	fs.StringVar(&cfg.dlqTopic, "dlq-topic", kafka.TopicReceiptsDLQ, "dead letter topic for unprocessable receipts")
	fs.IntVar(&cfg.retries, "retries", 3, "processing attempts before dead-lettering")
	fs.BoolVar(&cfg.fromOldest, "from-oldest", false, "start from the oldest offset when the group has no commits")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if strings.TrimSpace(brokers) == "" {
		brokers = getenv("KAFKA_BROKERS")
	}
	for _, broker := range strings.Split(brokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			cfg.brokers = append(cfg.brokers, broker)
		}
	}

	switch {
	case len(cfg.brokers) == 0:
		return cfg, errors.New("KAFKA_BROKERS (or -brokers) is required")
	case strings.TrimSpace(cfg.groupID) == "":
		return cfg, errors.New("group is required")
	case strings.TrimSpace(cfg.topic) == "":
		return cfg, errors.New("topic is required")
	case cfg.retries <= 0:
		return cfg, errors.New("retries must be > 0")
	}
	return cfg, nil
}

// ticketPrinter печатает тикеты по одному: consumer обрабатывает партиции параллельно.
type ticketPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *ticketPrinter) handle(_ context.Context, envelope kafka.Envelope, receipt domain.Receipt) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return writeTicket(p.out, envelope, receipt)
}

func writeTicket(out io.Writer, envelope kafka.Envelope, receipt domain.Receipt) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "=== ORDER %s ===\n", shortID(receipt.ID))
	_, _ = fmt.Fprintf(tw, "Seat:\t%s\n", receipt.SeatNumber)
	_, _ = fmt.Fprintf(tw, "Issued:\t%s\n", receipt.IssuedAt.Format(time.Kitchen))
	for i, line := range receipt.Lines {
		_, _ = fmt.Fprintf(tw, "%d.\t%s\t%s\n", i+1, line.Name, line.Price.StringFixed(2))
	}
	_, _ = fmt.Fprintf(tw, "Total:\t\t%s\n", receipt.Total.StringFixed(2))
	if envelope.ID != "" {
		_, _ = fmt.Fprintf(tw, "Ref:\t%s\n", envelope.ID)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("print ticket: %w", err)
	}
	_, err := fmt.Fprintln(out)
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	_ = godotenv.Load()

	cfg, err := parseConfig(flag.CommandLine, os.Args[1:], os.Getenv)
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	logger := log.WithField("component", "kitchen-feed")

	dlqProducer, err := kafka.NewProducer(cfg.brokers, kafka.WithClientID(cfg.groupID+"-dlq"))
	if err != nil {
		logger.WithError(err).Fatal("failed to create dlq producer")
	}
	defer func() {
		if err := dlqProducer.Close(); err != nil {
			logger.WithError(err).Warn("failed to close dlq producer")
		}
	}()

	printer := &ticketPrinter{out: os.Stdout}
	options := []kafka.ConsumerOption{
		kafka.WithDLQ(dlqProducer, cfg.dlqTopic),
		kafka.WithConsumerRetries(cfg.retries),
		kafka.WithConsumerLogger(logger),
	}
	if cfg.fromOldest {
		options = append(options, kafka.WithOldestOffset())
	}

	consumer, err := kafka.NewConsumer(cfg.brokers, cfg.groupID, []string{cfg.topic}, kafka.ReceiptHandler(printer.handle), options...)
	if err != nil {
		logger.WithError(err).Fatal("failed to create consumer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil {
		logger.WithError(err).Fatal("failed to start consumer")
	}
	logger.WithFields(log.Fields{"topic": cfg.topic, "group": cfg.groupID}).Info("kitchen feed is running")

	<-ctx.Done()
	if err := consumer.Stop(); err != nil {
		logger.WithError(err).Warn("consumer stopped with error")
	}
}
