package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/cart"
	"github.com/fjod/go_cart/mobile-cart/internal/config"
	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/fjod/go_cart/mobile-cart/internal/logger"
	"github.com/fjod/go_cart/mobile-cart/internal/storage"
	"github.com/fjod/go_cart/mobile-cart/internal/telemetry"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const usage = `usage: mobile-cart <command> [args]

commands:
  list                                   print the cart
  add -id ID -title T -image URL -price P  add a product
  inc ID                                 increment quantity
  dec ID                                 decrement quantity
  clear                                  empty the cart
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(logger.Options{Service: "mobile-cart", Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, cfg.Trace, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.WithError(err).Warn("error shutting down tracer provider")
		}
	}()

	kv, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer kv.Close()

	opts := append(cfg.StoreOptions(), cart.WithLogger(log))
	ctx, store, err := cart.Mount(ctx, kv, opts...)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.WithError(err).Warn("cart store did not drain")
		}
	}()

	if err := dispatch(ctx, args, log); err != nil {
		return err
	}
	if err := store.Flush(ctx); err != nil {
		return err
	}
	return printCart(out, cart.Use(ctx).Items())
}

func dispatch(ctx context.Context, args []string, log *logrus.Entry) error {
	store := cart.Use(ctx)

	switch args[0] {
	case "list":
		return nil

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		id := fs.String("id", "", "product id")
		title := fs.String("title", "", "product title")
		image := fs.String("image", "", "product image url")
		price := fs.String("price", "0", "unit price")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		p, err := decimal.NewFromString(*price)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", *price, err)
		}
		log.WithField("id", *id).Debug("add to cart")
		return store.AddToCart(ctx, domain.Product{ID: *id, Title: *title, ImageURL: *image, Price: p}).Wait(ctx)

	case "clear":
		return store.Clear(ctx).Wait(ctx)

	case "inc", "dec":
		if len(args) != 2 {
			return fmt.Errorf("%s needs exactly one product id", args[0])
		}
		if args[0] == "inc" {
			return store.Increment(ctx, args[1]).Wait(ctx)
		}
		return store.Decrement(ctx, args[1]).Wait(ctx)

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

type itemView struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

func printCart(out io.Writer, items []domain.CartItem) error {
	views := make([]itemView, len(items))
	for i, it := range items {
		views[i] = itemView{
			ID:       it.ID,
			Title:    it.Title,
			ImageURL: it.ImageURL,
			Price:    it.Price.StringFixed(2),
			Quantity: it.Quantity,
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(views)
}
