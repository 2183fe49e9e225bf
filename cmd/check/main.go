// Command check requests a feed through a running Transpod service and
// reports what came back.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/mmcdole/gofeed"
)

type options struct {
	Service string `long:"service" env:"TRANSPOD_URL" default:"http://localhost:8080" description:"Base URL of the Transpod service"`
	Limit   int    `long:"limit" short:"l" default:"5" description:"Number of items to request"`
	Timeout int    `long:"timeout" default:"30" description:"Request timeout in seconds"`
	Raw     bool   `long:"raw" description:"Print the transformed XML"`

	Args struct {
		FeedURL string `positional-arg-name:"feed-url" required:"true"`
	} `positional-args:"yes"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	if err := run(os.Stdout, opts); err != nil {
		fmt.Fprintf(os.Stderr, "check failed: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, opts options) error {
	target, err := serviceURL(opts.Service, opts.Args.FeedURL, opts.Limit)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(opts.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return fmt.Errorf("response is not a valid feed: %w", err)
	}

	fmt.Fprintf(w, "Feed:  %s (%s)\n", parsed.Title, parsed.FeedType)
	fmt.Fprintf(w, "Items: %d of %s (cache %s)\n", len(parsed.Items), resp.Header.Get("X-Feed-Items-Total"), resp.Header.Get("X-Cache"))
	for i, item := range parsed.Items {
		fmt.Fprintf(w, "  %2d. %s\n", i+1, item.Title)
	}

	if opts.Raw {
		fmt.Fprintln(w)
		fmt.Fprintln(w, string(body))
	}

	return nil
}

func serviceURL(service, feedURL string, limit int) (string, error) {
	u, err := url.Parse(service)
	if err != nil {
		return "", fmt.Errorf("invalid service URL: %w", err)
	}
	if u.Path == "" {
		u.Path = "/"
	}

	q := u.Query()
	q.Set("feed", feedURL)
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
