package catalog

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/url"
	"slices"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/profilewizard/condcache"
	"github.com/kbukum/profilewizard/errors"
	"github.com/kbukum/profilewizard/httpclient"
	"github.com/kbukum/profilewizard/httpclient/rest"
	"github.com/kbukum/profilewizard/logger"
	"github.com/kbukum/profilewizard/observability"
	"github.com/kbukum/profilewizard/validation"
)

const (
	technologiesPath = "/api/technologies"
	profilePath      = "/api/profile"

	keyAll = "all"
)

// Client reads the catalog and profile APIs through conditional caches and
// invalidates the whole resource family after every successful mutation.
type Client struct {
	http *httpclient.Client
	api  *rest.Client
	log  *logger.Logger

	// metrics is nil without WithMeter.
	metrics *observability.Metrics

	technologies *condcache.Cache[[]Technology]
	technology   *condcache.Cache[Technology]
	items        *condcache.Cache[[]ProfileItem]
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	log   *logger.Logger
	meter metric.Meter
}

// WithLogger sets the client logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *clientOptions) { o.log = l }
}

// WithMeter sets the meter used by the caches and the mutation metrics.
func WithMeter(m metric.Meter) Option {
	return func(o *clientOptions) { o.meter = m }
}

// New creates a catalog client on top of an HTTP client.
func New(client *httpclient.Client, opts ...Option) *Client {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("catalog")
	}

	cacheOpts := func(name string) []condcache.Option {
		co := []condcache.Option{condcache.WithName(name), condcache.WithLogger(o.log)}
		if o.meter != nil {
			co = append(co, condcache.WithMeter(o.meter))
		}
		return co
	}

	var metrics *observability.Metrics
	if o.meter != nil {
		m, err := observability.NewMetrics(o.meter, "catalog")
		if err != nil {
			o.log.Warn("mutation metrics disabled", logger.Fields(logger.FieldError, err.Error()))
		}
		metrics = m
	}

	return &Client{
		http:         client,
		api:          rest.NewFromClient(client),
		log:          o.log,
		metrics:      metrics,
		technologies: condcache.New[[]Technology](append(cacheOpts("technologies"), condcache.WithClone(slices.Clone[[]Technology]))...),
		technology:   condcache.New[Technology](cacheOpts("technology")...),
		items:        condcache.New[[]ProfileItem](append(cacheOpts("profile-items"), condcache.WithClone(slices.Clone[[]ProfileItem]))...),
	}
}

// ListTechnologies returns the whole catalog.
func (c *Client) ListTechnologies(ctx context.Context, opts ...condcache.RequestOption) ([]Technology, error) {
	exec := condcache.HTTPExecutor[[]Technology](c.http, httpclient.Request{
		Method: http.MethodGet,
		Path:   technologiesPath,
	})
	res, err := c.technologies.Request(ctx, keyAll, exec, opts...)
	if err != nil {
		return nil, err
	}
	return res.Payload, nil
}

// GetTechnology returns one catalog entry.
func (c *Client) GetTechnology(ctx context.Context, id string, opts ...condcache.RequestOption) (Technology, error) {
	if id == "" {
		return Technology{}, errors.MissingField("id")
	}
	exec := condcache.HTTPExecutor[Technology](c.http, httpclient.Request{
		Method: http.MethodGet,
		Path:   technologyPath(id),
	})
	res, err := c.technology.Request(ctx, id, exec, opts...)
	if err != nil {
		return Technology{}, err
	}
	return res.Payload, nil
}

// CreateTechnology adds an entry and returns it with its server-assigned ID.
func (c *Client) CreateTechnology(ctx context.Context, t Technology) (Technology, error) {
	if err := validation.Validate(t); err != nil {
		return Technology{}, err
	}
	start := time.Now()
	resp, err := rest.Post[Technology](ctx, c.api, technologiesPath, t)
	c.record(ctx, "create_technology", start, err)
	if err != nil {
		return Technology{}, err
	}
	c.invalidateTechnologies()
	return resp.Data, nil
}

// UpdateTechnology replaces an existing entry.
func (c *Client) UpdateTechnology(ctx context.Context, t Technology) (Technology, error) {
	if t.ID == "" {
		return Technology{}, errors.MissingField("id")
	}
	if err := validation.Validate(t); err != nil {
		return Technology{}, err
	}
	start := time.Now()
	resp, err := rest.Put[Technology](ctx, c.api, technologyPath(t.ID), t)
	c.record(ctx, "update_technology", start, err)
	if err != nil {
		return Technology{}, err
	}
	c.invalidateTechnologies()
	return resp.Data, nil
}

// DeleteTechnology removes an entry.
func (c *Client) DeleteTechnology(ctx context.Context, id string) error {
	if id == "" {
		return errors.MissingField("id")
	}
	start := time.Now()
	_, err := rest.Delete[struct{}](ctx, c.api, technologyPath(id))
	c.record(ctx, "delete_technology", start, err)
	if err != nil {
		return err
	}
	c.invalidateTechnologies()
	return nil
}

// ListProfileItems returns the saved items of one profile section.
func (c *Client) ListProfileItems(ctx context.Context, kind ItemKind, opts ...condcache.RequestOption) ([]ProfileItem, error) {
	if !kind.Valid() {
		return nil, errors.InvalidInput("kind", "unknown profile section "+string(kind))
	}
	exec := condcache.HTTPExecutor[[]ProfileItem](c.http, httpclient.Request{
		Method: http.MethodGet,
		Path:   itemsPath(kind),
	})
	res, err := c.items.Request(ctx, string(kind), exec, opts...)
	if err != nil {
		return nil, err
	}
	return res.Payload, nil
}

// SaveProfileItem creates the item when it has no ID and replaces it otherwise.
func (c *Client) SaveProfileItem(ctx context.Context, item ProfileItem) (ProfileItem, error) {
	if err := validation.Validate(item); err != nil {
		return ProfileItem{}, err
	}
	var (
		resp *rest.Response[ProfileItem]
		err  error
	)
	start := time.Now()
	if item.ID == "" {
		resp, err = rest.Post[ProfileItem](ctx, c.api, itemsPath(item.Kind), item)
	} else {
		resp, err = rest.Put[ProfileItem](ctx, c.api, itemPath(item.Kind, item.ID), item)
	}
	c.record(ctx, "save_profile_item", start, err)
	if err != nil {
		return ProfileItem{}, err
	}
	c.items.InvalidateAll()
	return resp.Data, nil
}

// DeleteProfileItem removes one item of a profile section.
func (c *Client) DeleteProfileItem(ctx context.Context, kind ItemKind, id string) error {
	if !kind.Valid() {
		return errors.InvalidInput("kind", "unknown profile section "+string(kind))
	}
	if id == "" {
		return errors.MissingField("id")
	}
	start := time.Now()
	_, err := rest.Delete[struct{}](ctx, c.api, itemPath(kind, id))
	c.record(ctx, "delete_profile_item", start, err)
	if err != nil {
		return err
	}
	c.items.InvalidateAll()
	return nil
}

// Invalidate drops every cached read.
func (c *Client) Invalidate() {
	c.invalidateTechnologies()
	c.items.InvalidateAll()
}

func (c *Client) invalidateTechnologies() {
	c.technologies.InvalidateAll()
	c.technology.InvalidateAll()
}

func (c *Client) record(ctx context.Context, op string, start time.Time, err error) {
	c.metrics.Record(ctx, op, errorCode(err), time.Since(start))
}

// errorCode names the failure class of err for metrics, "" for nil.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	var httpErr *httpclient.Error
	if stderrors.As(err, &httpErr) {
		return httpErr.Code.String()
	}
	return "unknown"
}

func technologyPath(id string) string {
	return technologiesPath + "/" + url.PathEscape(id)
}

func itemsPath(kind ItemKind) string {
	return profilePath + "/" + string(kind)
}

func itemPath(kind ItemKind, id string) string {
	return itemsPath(kind) + "/" + url.PathEscape(id)
}
