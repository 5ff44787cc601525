package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/rhosegym/gymcore/internal/app/api/server"
	"github.com/rhosegym/gymcore/internal/app/service/attendance"
	"github.com/rhosegym/gymcore/internal/app/service/audit"
	"github.com/rhosegym/gymcore/internal/app/service/catalog"
	"github.com/rhosegym/gymcore/internal/app/service/chatbot"
	"github.com/rhosegym/gymcore/internal/app/service/identity"
	"github.com/rhosegym/gymcore/internal/app/service/membership"
	"github.com/rhosegym/gymcore/internal/app/service/payment"
	"github.com/rhosegym/gymcore/internal/platform/cache"
	"github.com/rhosegym/gymcore/internal/platform/db"
	"github.com/rhosegym/gymcore/pkg/config"
	"github.com/rhosegym/gymcore/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	cache.Module,
	server.Module,
	audit.Module,
	identity.Module,
	catalog.Module,
	membership.Module,
	payment.Module,
	attendance.Module,
	chatbot.Module,
)
