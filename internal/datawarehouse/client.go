// Package datawarehouse provides read-only access to the ERP data warehouse on
// MS SQL Server. It backs customer master lookups for customers that have not
// been copied into the local master table yet.
package datawarehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/motorserv/srf-api/internal/config"
	"go.uber.org/zap"
)

const (
	connectAttempts    = 3
	initialBackoff     = 1 * time.Second
	maxBackoff         = 10 * time.Second
	healthCheckTimeout = 5 * time.Second
)

// tableNamePattern restricts the configured customer table to schema.table identifiers.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Customer is one ERP customer row.
type Customer struct {
	Code     string
	Name     string
	Address1 string
	Address2 string
	Address3 string
	City     string
	Pin      string
	Contact1 string
	Contact2 string
	GST      string
}

// Client is a pooled read-only connection to the warehouse.
type Client struct {
	db            *sql.DB
	customerTable string
	logger        *zap.Logger
	queryTimeout  time.Duration
}

// HealthStatus is the result of a warehouse ping.
type HealthStatus struct {
	Status    string        `json:"status"`
	Latency   time.Duration `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
	Open      int           `json:"open_connections"`
	InUse     int           `json:"in_use"`
	Idle      int           `json:"idle"`
	WaitCount int64         `json:"wait_count"`
}

// NewClient connects to the warehouse. It returns a nil client and nil error when
// the warehouse is disabled or not configured, so callers can treat the
// warehouse as optional.
func NewClient(cfg *config.DataWarehouseConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Data warehouse connection disabled")
		return nil, nil
	}
	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("Data warehouse enabled but missing credentials, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}
	if !tableNamePattern.MatchString(cfg.CustomerTable) {
		return nil, fmt.Errorf("invalid data warehouse customer table %q", cfg.CustomerTable)
	}

	connStr := buildConnectionString(cfg)

	var (
		db  *sql.DB
		err error
	)
	backoff := initialBackoff
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = open(connStr, cfg)
		if err == nil {
			logger.Info("Data warehouse connection established",
				zap.Int("attempts_taken", attempt),
				zap.String("customer_table", cfg.CustomerTable),
			)
			return &Client{
				db:            db,
				customerTable: cfg.CustomerTable,
				logger:        logger,
				queryTimeout:  cfg.QueryTimeoutDuration(),
			}, nil
		}

		logger.Warn("Data warehouse connection attempt failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
		)
		if attempt < connectAttempts {
			time.Sleep(backoff)
			backoff = min(backoff*2, maxBackoff)
		}
	}
	return nil, fmt.Errorf("failed to connect to data warehouse after %d attempts: %w", connectAttempts, err)
}

func open(connStr string, cfg *config.DataWarehouseConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// buildConnectionString turns host:port/database into a sqlserver:// URL.
func buildConnectionString(cfg *config.DataWarehouseConfig) string {
	hostPort, database, _ := strings.Cut(cfg.URL, "/")
	host, port, found := strings.Cut(hostPort, ":")
	if !found {
		port = "1433"
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     host + ":" + port,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// IsEnabled reports whether the client holds a live connection pool.
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if !c.IsEnabled() {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close data warehouse connection: %w", err)
	}
	c.logger.Info("Data warehouse connection closed")
	return nil
}

// HealthCheck pings the warehouse and reports pool statistics.
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if !c.IsEnabled() {
		return &HealthStatus{Status: "disabled"}
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, healthCheckTimeout)
		defer cancel()
	}

	start := time.Now()
	err := c.db.PingContext(ctx)
	stats := c.db.Stats()
	status := &HealthStatus{
		Status:    "healthy",
		Latency:   time.Since(start),
		Open:      stats.OpenConnections,
		InUse:     stats.InUse,
		Idle:      stats.Idle,
		WaitCount: stats.WaitCount,
	}
	if err != nil {
		c.logger.Warn("Data warehouse health check failed", zap.Error(err))
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	return status
}

const customerColumns = `CustomerCode, CustomerName, Address1, Address2, Address3, City, PinCode, Phone1, Phone2, GSTNumber`

// FindCustomerByName returns the ERP customer whose name matches exactly,
// ignoring case, or nil when there is none.
func (c *Client) FindCustomerByName(ctx context.Context, name string) (*Customer, error) {
	return c.findCustomer(ctx, "UPPER(CustomerName) = UPPER(@p1)", name)
}

// FindCustomerByCode returns the ERP customer with the given code, or nil.
func (c *Client) FindCustomerByCode(ctx context.Context, code string) (*Customer, error) {
	return c.findCustomer(ctx, "CustomerCode = @p1", code)
}

func (c *Client) findCustomer(ctx context.Context, where string, arg string) (*Customer, error) {
	if !c.IsEnabled() {
		return nil, errors.New("data warehouse client not initialized")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	query := fmt.Sprintf("SELECT TOP 1 %s FROM %s WHERE %s", customerColumns, c.customerTable, where)
	start := time.Now()

	var (
		cust                         Customer
		addr1, addr2, addr3, city    sql.NullString
		pin, phone1, phone2, gstNumb sql.NullString
	)
	err := c.db.QueryRowContext(ctx, query, arg).Scan(
		&cust.Code, &cust.Name, &addr1, &addr2, &addr3, &city, &pin, &phone1, &phone2, &gstNumb,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Data warehouse customer query failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, fmt.Errorf("customer query failed: %w", err)
	}

	cust.Code = strings.TrimSpace(cust.Code)
	cust.Name = strings.TrimSpace(cust.Name)
	cust.Address1 = addr1.String
	cust.Address2 = addr2.String
	cust.Address3 = addr3.String
	cust.City = city.String
	cust.Pin = pin.String
	cust.Contact1 = phone1.String
	cust.Contact2 = phone2.String
	cust.GST = gstNumb.String

	c.logger.Debug("Data warehouse customer query completed",
		zap.String("code", cust.Code),
		zap.Duration("duration", time.Since(start)),
	)
	return &cust, nil
}
