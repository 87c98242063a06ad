package appbuilder

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/gin-gonic/gin"

	"github.com/udaycodespace/credify/pkg/logger"
	"github.com/udaycodespace/credify/pkg/rest"
	"github.com/udaycodespace/credify/pkg/utilities"
)

type AppConfig interface {
	GetLoggerConfig() logger.LoggerConfig
	GetRestApiPort() uint16
}

type AppBuilder[T utilities.JsonConfigObj[U], U AppConfig] struct {
	logger      *logger.Logger
	config      U
	middlewares []rest.Middleware
	routes      []rest.Route
	engine      *gin.Engine
}

type AppBuilderInterface[T utilities.JsonConfigObj[U], U AppConfig] interface {
	InitLogger(loggerArgs logger.GlobalLoggerConfig) AppBuilderInterface[T, U]
	LoadConfig(configPath string) AppBuilderInterface[T, U]
	WithConfig(config U) AppBuilderInterface[T, U]
	WithOption(option func(a *AppBuilder[T, U])) AppBuilderInterface[T, U]
	AddGinMiddleware(middlewares ...rest.Middleware) AppBuilderInterface[T, U]
	AddGinRoutes(routes ...rest.Route) AppBuilderInterface[T, U]
	InitGinRouter() AppBuilderInterface[T, U]
	Build() *Application
}

func New[T utilities.JsonConfigObj[U], U AppConfig]() AppBuilderInterface[T, U] {
	return &AppBuilder[T, U]{}
}

func (a *AppBuilder[T, U]) InitLogger(loggerArgs logger.GlobalLoggerConfig) AppBuilderInterface[T, U] {
	logger.InitDefaultLogger(loggerArgs)
	a.logger = logger.Default()
	a.logger.Info("Logger initialized")

	return a
}

// LoadConfig reads the JSON config at filePath. A missing file keeps the
// zero config so servers can run on defaults; any other error is fatal.
func (a *AppBuilder[T, U]) LoadConfig(filePath string) AppBuilderInterface[T, U] {
	a.logger.Infof("Preparing to load config from %s ...", filePath)
	jsonConfig, err := utilities.ReadConfig[T, U](filePath)
	if errors.Is(err, fs.ErrNotExist) {
		a.logger.Warnf("Config file %s not found, using defaults", filePath)
		var empty T
		a.config = empty.ConvertToDomain()
		return a
	}
	if err != nil {
		a.logger.Error(err, "Failed to load config")
		panic(err)
	}

	a.config = jsonConfig
	a.logger.Info("Config successfully loaded.")
	return a
}

func (a *AppBuilder[T, U]) WithConfig(config U) AppBuilderInterface[T, U] {
	a.config = config
	return a
}

func (a *AppBuilder[T, U]) WithOption(option func(a *AppBuilder[T, U])) AppBuilderInterface[T, U] {
	option(a)
	return a
}

// Config exposes the loaded configuration to WithOption callbacks.
func (a *AppBuilder[T, U]) Config() U {
	return a.config
}

func (a *AppBuilder[T, U]) Logger() *logger.Logger {
	return a.logger
}

func (a *AppBuilder[T, U]) AddGinMiddleware(middlewares ...rest.Middleware) AppBuilderInterface[T, U] {
	a.logger.Info("Adding Gin middleware to Application...")
	a.middlewares = append(a.middlewares, middlewares...)
	return a
}

func (a *AppBuilder[T, U]) AddGinRoutes(routes ...rest.Route) AppBuilderInterface[T, U] {
	a.logger.Info("Adding Gin REST API routes to Application...")
	a.routes = append(a.routes, routes...)
	return a
}

func (a *AppBuilder[T, U]) InitGinRouter() AppBuilderInterface[T, U] {
	a.logger.Info("Initializing Gin Router...")
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), rest.RequestLogger(a.logger))

	groups := map[string]*gin.RouterGroup{}
	group := func(name string) *gin.RouterGroup {
		if _, exists := groups[name]; !exists {
			groups[name] = router.Group("/" + name)
		}
		return groups[name]
	}

	// Global middleware has to be attached before any group copies the
	// router's handler chain.
	for _, m := range a.middlewares {
		if m.Group == "*" {
			router.Use(m.Handler)
		}
	}
	for _, m := range a.middlewares {
		if m.Group != "*" {
			group(m.Group).Use(m.Handler)
		}
	}

	a.logger.Info("Registering REST API routes...")
	for _, r := range a.routes {
		g := group(r.Group)

		switch r.Method {
		case rest.GET:
			g.GET(r.Path, r.HandlerFunc)
		case rest.POST:
			g.POST(r.Path, r.HandlerFunc)
		case rest.PUT:
			g.PUT(r.Path, r.HandlerFunc)
		case rest.PATCH:
			g.PATCH(r.Path, r.HandlerFunc)
		case rest.DELETE:
			g.DELETE(r.Path, r.HandlerFunc)
		default:
			a.logger.Warnf("Unrecognized HTTP method: %s", r.Method)
		}
	}

	a.engine = router
	a.logger.Info("Successfully registered REST API routes.")
	return a
}

func (a *AppBuilder[T, U]) Build() *Application {
	return &Application{
		Logger: a.logger,
		Addr:   fmt.Sprintf("0.0.0.0:%d", a.config.GetRestApiPort()),
		Engine: a.engine,
	}
}
