package retriever

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"time"

	"github.com/hickar/mailbar/internal/app/config"
	"github.com/hickar/mailbar/internal/app/mailer"
	"github.com/hickar/mailbar/internal/pkg/logger"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/textproto"
)

type Dialer interface {
	Dial(ctx context.Context, address string, options *imapclient.Options) (*imapclient.Client, error)
}

type DialerFunc func(context.Context, string, *imapclient.Options) (*imapclient.Client, error)

func (f DialerFunc) Dial(ctx context.Context, address string, options *imapclient.Options) (*imapclient.Client, error) {
	return f(ctx, address, options)
}

// TLSDialer connects to IMAPS server. Context deadline, if any,
// is applied to the whole connection lifetime.
func TLSDialer(timeout time.Duration) DialerFunc {
	return func(ctx context.Context, address string, options *imapclient.Options) (*imapclient.Client, error) {
		dialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: timeout}}

		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return nil, err
		}

		if deadline, ok := ctx.Deadline(); ok {
			if err = conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("set deadline: %w", err)
			}
		}

		return imapclient.New(conn, options), nil
	}
}

type imapRetriever struct {
	dialer Dialer
	logger *slog.Logger
}

func NewIMAPRetriever(dialer Dialer, logger *slog.Logger) *imapRetriever {
	return &imapRetriever{
		dialer: dialer,
		logger: logger,
	}
}

// GetUnread collects header summaries of unread messages from every configured mailbox.
//
// Execution flow:
// 1. Connect to the IMAP server and authenticate.
// 2. For each mailbox, in configured order:
//   - Select it read-only.
//   - Search UIDs of messages without \Seen flag.
//   - Fetch Subject, From and Date header fields without setting \Seen.
//   - Decode the fields, keeping the search order.
//
// 3. Log out.
//
// The first error aborts the run and nothing gathered before it is returned.
func (r *imapRetriever) GetUnread(ctx context.Context, cfg config.Config) ([]mailer.Message, error) {
	client, err := r.dialer.Dial(ctx, cfg.Address(), &imapclient.Options{
		UnilateralDataHandler: &imapclient.UnilateralDataHandler{},
		WordDecoder:           &mime.WordDecoder{CharsetReader: charset.Reader},
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Address(), err)
	}
	defer func() {
		_ = client.Close()
	}()

	// Blocked commands are released by closing the connection.
	stop := context.AfterFunc(ctx, func() {
		_ = client.Close()
	})
	defer stop()

	if err = client.Login(cfg.User, cfg.Password).Wait(); err != nil {
		return nil, withContext(ctx, fmt.Errorf("login: %w", err))
	}

	var messages []mailer.Message
	for _, mailbox := range cfg.Mailboxes {
		mctx := logger.WithAttrs(ctx, slog.String("mailbox", mailbox))

		unread, err := r.getMailboxUnread(mctx, client, mailbox)
		if err != nil {
			return nil, withContext(ctx, err)
		}
		r.logger.DebugContext(mctx, fmt.Sprintf("%d unread messages", len(unread)))

		messages = append(messages, unread...)
	}

	if err = client.Logout().Wait(); err != nil {
		r.logger.WarnContext(ctx, "logout failed", slog.Any("error", err))
	}

	return messages, nil
}

func (r *imapRetriever) getMailboxUnread(ctx context.Context, client *imapclient.Client, mailbox string) ([]mailer.Message, error) {
	if _, err := client.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fmt.Errorf("select %q: %w", mailbox, err)
	}

	search, err := client.UIDSearch(unreadCriteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", mailbox, err)
	}

	uids := search.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	r.logger.DebugContext(ctx, "fetching headers", slog.Int("count", len(uids)))

	buffers, err := client.Fetch(imap.UIDSetNum(uids...), fetchOptions).Collect()
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", mailbox, err)
	}

	byUID := make(map[imap.UID]*imapclient.FetchMessageBuffer, len(buffers))
	for _, buf := range buffers {
		byUID[buf.UID] = buf
	}

	messages := make([]mailer.Message, 0, len(uids))
	for _, uid := range uids {
		buf, ok := byUID[uid]
		if !ok {
			// Message was expunged between search and fetch.
			continue
		}

		message, err := parseMessage(buf.FindBodySection(headerSection))
		if err != nil {
			return nil, fmt.Errorf("parse message %d in %q: %w", uid, mailbox, err)
		}
		message.Mailbox = mailbox
		message.UID = uint32(uid)

		messages = append(messages, message)
	}

	return messages, nil
}

// parseMessage builds message summary from raw header block.
func parseMessage(raw []byte) (mailer.Message, error) {
	// Terminating empty line is appended in case server omitted it.
	block := append(bytes.Clone(raw), "\r\n"...)

	header, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(block)))
	if err != nil {
		return mailer.Message{}, fmt.Errorf("read header: %w", err)
	}

	return mailer.Message{
		Date:    ParseDate(header.Get("Date")),
		Subject: DecodeHeader(header.Get("Subject")),
		Sender:  DecodeHeader(header.Get("From")),
	}, nil
}

// withContext prefers context's error when command failed because
// connection was closed on cancellation.
func withContext(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}

	return err
}

var unreadCriteria = &imap.SearchCriteria{
	NotFlag: []imap.Flag{imap.FlagSeen},
}

var headerSection = &imap.FetchItemBodySection{
	Specifier:    imap.PartSpecifierHeader,
	HeaderFields: []string{"Subject", "From", "Date"},
	Peek:         true,
}

var fetchOptions = &imap.FetchOptions{
	UID:         true,
	BodySection: []*imap.FetchItemBodySection{headerSection},
}
