package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"enquetes-backend/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotConnected 连接尚未建立或已关闭
var ErrNotConnected = errors.New("数据库连接不可用")

// Provider 持有进程内唯一的数据库连接。
// 第一次调用 Conn 时建立连接，之后始终返回同一个句柄；首次连接失败后不再重试。
type Provider struct {
	cfg       config.Config
	dialector gorm.Dialector

	once   sync.Once
	mu     sync.RWMutex
	db     *gorm.DB
	err    error
	closed bool
}

// NewProvider 根据配置创建连接提供者，此时不会建立连接
func NewProvider(cfg config.Config) *Provider {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		dialector = mysql.Open(cfg.DSN())
	}
	return &Provider{cfg: cfg, dialector: dialector}
}

// Conn 返回共享连接，带上请求的 context
func (p *Provider) Conn(ctx context.Context) (*gorm.DB, error) {
	p.once.Do(p.connect)

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.err != nil {
		return nil, p.err
	}
	if p.closed || p.db == nil {
		return nil, ErrNotConnected
	}
	return p.db.WithContext(ctx), nil
}

// MustConnect 建立连接，失败时直接退出进程
func (p *Provider) MustConnect() *gorm.DB {
	db, err := p.Conn(context.Background())
	if err != nil {
		log.Fatalf("无法初始化数据库: %v", err)
	}
	return db
}

func (p *Provider) connect() {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // 慢SQL阈值
			LogLevel:                  p.logLevel(),
			IgnoreRecordNotFoundError: true, // 忽略ErrRecordNotFound错误
			ParameterizedQueries:      !p.cfg.AppDebug,
			Colorful:                  p.cfg.AppDebug,
		},
	)

	db, err := gorm.Open(p.dialector, &gorm.Config{
		Logger:         newLogger,
		TranslateError: true, // 唯一约束冲突转换为 gorm.ErrDuplicatedKey
	})
	if err != nil {
		p.setResult(nil, fmt.Errorf("连接数据库失败: %w", err))
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		p.setResult(nil, fmt.Errorf("获取底层连接失败: %w", err))
		return
	}

	maxOpen := p.cfg.DBMaxOpenConns
	if p.cfg.DBDriver == "sqlite" || maxOpen < 1 {
		// sqlite 只允许一个写连接，内存库也依赖同一连接存活
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	if p.cfg.DBDriver != "sqlite" {
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := sqlDB.Ping(); err != nil {
		p.setResult(nil, fmt.Errorf("数据库无法访问: %w", err))
		return
	}

	log.Printf("数据库连接成功: driver=%s name=%s", p.driverName(), p.cfg.DBName)
	p.setResult(db, nil)
}

func (p *Provider) setResult(db *gorm.DB, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.db = db
	p.err = err
}

func (p *Provider) logLevel() logger.LogLevel {
	if p.cfg.AppDebug {
		return logger.Info
	}
	return logger.Warn
}

func (p *Provider) driverName() string {
	if p.cfg.DBDriver == "" {
		return "mysql"
	}
	return p.cfg.DBDriver
}

// Exec 执行参数化写语句，返回受影响行数
func (p *Provider) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	db, err := p.Conn(ctx)
	if err != nil {
		return 0, err
	}
	result := db.Exec(query, args...)
	return result.RowsAffected, result.Error
}

// Raw 执行参数化查询并扫描到 dest
func (p *Provider) Raw(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	db, err := p.Conn(ctx)
	if err != nil {
		return err
	}
	return db.Raw(query, args...).Scan(dest).Error
}

// Transaction 在一个事务中执行 fn；fn 返回错误或 panic 时回滚
func (p *Provider) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db, err := p.Conn(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(fn)
}

// Ping 检查连接是否可用
func (p *Provider) Ping(ctx context.Context) error {
	db, err := p.Conn(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil || p.closed {
		return
	}
	p.closed = true

	sqlDB, err := p.db.DB()
	if err != nil {
		log.Printf("获取数据库连接失败: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("关闭数据库连接失败: %v", err)
		return
	}
	log.Println("数据库连接已关闭")
}
