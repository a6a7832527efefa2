package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/seatech/enthusiasm/apps/api/echo"
	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/core/admin"
	"github.com/seatech/enthusiasm/core/student"
	"github.com/seatech/enthusiasm/core/token"
	chatsvc "github.com/seatech/enthusiasm/services/chat"
	emailsvc "github.com/seatech/enthusiasm/services/email"
	logsvc "github.com/seatech/enthusiasm/services/logger"
	"github.com/seatech/enthusiasm/storage/database"
	filestore "github.com/seatech/enthusiasm/storage/files"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Repositories are the persistence of the selected database engine.
	Repositories struct {
		dig.Out
		DB       core.Database
		Students student.Repository
		Admins   admin.Repository
	}

	ServerParams struct {
		dig.In
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Tokens     *token.Issuer
		StudentSvc *student.Service
		AdminSvc   *admin.Service
		Shutdown   chan os.Signal
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) Repositories {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	defer cancel()

	stores, err := database.Open(ctx, conf, true /* migrate */)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up %s database: %v", conf.Database.Engine, err), err)
	}
	loggerParam.Logger.Info(fmt.Sprintf("%s database ready", stores.DB.Engine()))
	return Repositories{DB: stores.DB, Students: stores.Students, Admins: stores.Admins}
}

func newFileStorage(conf *core.Config, logger core.Logger) core.FileStorage {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	defer cancel()

	files, err := filestore.New(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s file storage: %v", conf.Storage.Backend, err), err)
	}
	return files
}

func newValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	student.RegisterValidators(validate, translator)
	admin.RegisterValidators(validate, translator)
	return validate, translator
}

func newTokenIssuer(conf *core.Config) *token.Issuer {
	return token.NewIssuer(conf.AppName, conf.SecretKey, conf.Server.StudentTokenTTL, conf.Server.AdminTokenTTL)
}

func newServer(p ServerParams) echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Address:    p.Conf.Server.Address(),
		Conf:       p.Conf,
		Logger:     p.Logger,
		Validate:   p.Validate,
		Translator: p.Translator,
		Tokens:     p.Tokens,
		StudentSvc: p.StudentSvc,
		AdminSvc:   p.AdminSvc,
		SignalShutdown: func() {
			select {
			case p.Shutdown <- syscall.SIGTERM:
			default: // already shutting down
			}
		},
	})
}

// New returns a new dependency injection dig.Container.
// shutdown receives the signals that stop the application.
func New(shutdown chan os.Signal) *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(func() chan os.Signal { return shutdown }))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newFileStorage))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(chatsvc.NewService))
	must(c.Provide(newValidator))
	must(c.Provide(newTokenIssuer))
	must(c.Provide(student.NewService))
	must(c.Provide(admin.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
