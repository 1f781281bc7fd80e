package main

import (
	"context"
	"gitlab.faza.io/go-framework/logger"
	"gitlab.faza.io/order-project/restaurant-service/app"
	"gitlab.faza.io/order-project/restaurant-service/configs"
	"gitlab.faza.io/order-project/restaurant-service/domain/billing"
	"gitlab.faza.io/order-project/restaurant-service/domain/checkout"
	bill_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/bill"
	order_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/order"
	product_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/product"
	review_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/review"
	sequence_repository "gitlab.faza.io/order-project/restaurant-service/domain/models/repository/sequence"
	"gitlab.faza.io/order-project/restaurant-service/domain/rating"
	"gitlab.faza.io/order-project/restaurant-service/domain/states"
	applog "gitlab.faza.io/order-project/restaurant-service/infrastructure/logger"
	cart_service "gitlab.faza.io/order-project/restaurant-service/infrastructure/services/cart"
	pdf_service "gitlab.faza.io/order-project/restaurant-service/infrastructure/services/pdf"
	user_service "gitlab.faza.io/order-project/restaurant-service/infrastructure/services/user"
	"os"
)

func main() {
	var err error
	if os.Getenv("APP_ENV") == "dev" {
		app.Globals.Config, err = configs.LoadConfig("./testdata/.env")
	} else {
		app.Globals.Config, err = configs.LoadConfig("")
	}
	if err != nil {
		logger.Err("LoadConfig of main init failed, error: %s ", err.Error())
		os.Exit(1)
	}

	applog.GLog.ZapLogger = app.InitZap()
	applog.GLog.Logger = logger.NewZapLogger(applog.GLog.ZapLogger)
	app.Globals.ZapLogger = applog.GLog.ZapLogger
	app.Globals.Logger = applog.GLog.Logger

	mongoDriver, err := app.SetupMongoDriver(*app.Globals.Config)
	if err != nil {
		applog.GLog.Logger.Error("main SetupMongoDriver failed",
			"fn", "main", "configs", app.Globals.Config.Mongo, "error", err)
		os.Exit(1)
	}
	app.Globals.MongoDriver = mongoDriver

	database := app.Globals.Config.Mongo.Database
	if err := app.RegisterIndexes(mongoDriver, database); err != nil {
		applog.GLog.Logger.Error("main RegisterIndexes failed",
			"fn", "main", "database", database, "error", err)
		os.Exit(1)
	}

	app.Globals.ProductRepository = product_repository.NewProductRepository(mongoDriver, database)
	app.Globals.OrderRepository = order_repository.NewOrderRepository(mongoDriver, database)
	app.Globals.BillRepository = bill_repository.NewBillRepository(mongoDriver, database)
	app.Globals.ReviewRepository = review_repository.NewReviewRepository(mongoDriver, database)
	app.Globals.SequenceRepository = sequence_repository.NewSequenceRepository(mongoDriver, database)

	if app.Globals.Config.CartService.MockEnabled {
		app.Globals.CartService = cart_service.NewCartServiceMock()
	} else {
		app.Globals.CartService = cart_service.NewCartService(mongoDriver, database, app.Globals.ProductRepository)
	}

	if app.Globals.Config.UserService.MockEnabled {
		app.Globals.UserService = user_service.NewUserServiceMock()
	} else {
		app.Globals.UserService = user_service.NewUserService(app.Globals.Config.UserService.Address, app.Globals.Config.UserService.Port)
	}

	if app.Globals.Config.PdfService.MockEnabled {
		app.Globals.PdfService = pdf_service.NewPdfServiceMock()
	} else {
		app.Globals.PdfService = pdf_service.NewPdfService(app.Globals.Config.PdfService.Address, app.Globals.Config.PdfService.Port)
	}

	app.Globals.CheckoutService = checkout.NewCheckoutService(app.Globals.CartService,
		app.Globals.OrderRepository,
		app.Globals.Config.App.TaxRatePercent,
		app.Globals.Config.App.Currency)
	app.Globals.OrderStateMachine = states.NewOrderStateMachine(app.Globals.OrderRepository)
	app.Globals.RatingService = rating.NewRatingService(app.Globals.ReviewRepository, app.Globals.ProductRepository)
	app.Globals.BillingService = billing.NewBillingService(app.Globals.BillRepository,
		app.Globals.OrderRepository,
		app.Globals.SequenceRepository,
		app.Globals.PdfService,
		app.Globals.Config.App.BillSequenceName)

	applog.GLog.Logger.Info("restaurant service initialized",
		"fn", "main", "mode", app.Globals.Config.App.ServiceMode, "database", database)

	// maintenance mode recomputes every product aggregate and exits
	if app.Globals.Config.App.ServiceMode == "reconcile" {
		if err := app.Globals.RatingService.ReconcileAll(context.Background()); err != nil {
			applog.GLog.Logger.Error("rating reconcile failed", "fn", "main", "error", err)
			os.Exit(1)
		}
		applog.GLog.Logger.Info("rating reconcile finished", "fn", "main")
	}
}
