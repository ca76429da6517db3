// createadmin 创建管理员账号。密码以 bcrypt（cost 10）哈希后写入 usuarios 表。
//
//	go run ./cmd/createadmin -usuario admin -email admin@example.com -senha 'segredo'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"enquetes-backend/config"
	"enquetes-backend/database"
	"enquetes-backend/migrations"
	"enquetes-backend/models"
	"enquetes-backend/repository"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

type options struct {
	Username string
	Email    string
	Password string
}

func parseFlags(args []string) (options, error) {
	var opts options

	fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	fs.StringVar(&opts.Username, "usuario", "", "Nome de usuário (mínimo 3 caracteres)")
	fs.StringVar(&opts.Email, "email", "", "E-mail do administrador")
	fs.StringVar(&opts.Password, "senha", "", "Senha em texto plano (ou ADMIN_PASSWORD)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.Password == "" {
		opts.Password = os.Getenv("ADMIN_PASSWORD")
	}
	if opts.Username == "" || opts.Email == "" {
		return options{}, errors.New("-usuario e -email são obrigatórios")
	}
	if opts.Password == "" {
		return options{}, errors.New("senha obrigatória (use -senha ou ADMIN_PASSWORD)")
	}
	return opts, nil
}

func newAdmin(opts options) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("生成密码哈希失败: %w", err)
	}
	return &models.User{
		Username:     opts.Username,
		Email:        opts.Email,
		PasswordHash: string(hash),
	}, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("参数错误: %v", err)
	}

	cfg := config.Load()
	provider := database.NewProvider(cfg)
	defer provider.Close()

	if err := migrations.Run(provider.MustConnect()); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	user, err := newAdmin(opts)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := repository.NewUserRepository(provider).Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			log.Fatalf("用户名或邮箱已存在: %s / %s", opts.Username, opts.Email)
		case errors.Is(err, repository.ErrInvalidInput):
			log.Fatalf("管理员信息无效: %v", err)
		default:
			log.Fatalf("创建管理员失败: %v", err)
		}
	}

	fmt.Printf("Administrador criado: %s (ID %d)\n", user.Username, user.ID)
}
