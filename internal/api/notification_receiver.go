package api

import (
	"context"
	"net/http"

	"github.com/identity-sync/scim-connector/internal/config"
	"github.com/identity-sync/scim-connector/internal/domain"
	"github.com/identity-sync/scim-connector/internal/middlewares"
	"github.com/identity-sync/scim-connector/internal/platform/logger"
	"github.com/redhatinsights/platform-go-middlewares/request_id"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NotificationDispatcher routes one raw lifecycle notification.  The
// dispatch.Router is the production implementation.
type NotificationDispatcher interface {
	Route(ctx context.Context, notification *domain.LifecycleNotification)
}

// NotificationReceiver is the HTTP ingest surface: the host posts
// lifecycle notifications here when it is not wired up to the Kafka
// topic.
type NotificationReceiver struct {
	dispatcher NotificationDispatcher
	router     *mux.Router
	config     *config.Config
	urlPrefix  string
}

func NewNotificationReceiver(dispatcher NotificationDispatcher, r *mux.Router, urlPrefix string, cfg *config.Config) *NotificationReceiver {
	return &NotificationReceiver{
		dispatcher: dispatcher,
		router:     r,
		config:     cfg,
		urlPrefix:  urlPrefix,
	}
}

func (nr *NotificationReceiver) Routes() {
	mmw := &middlewares.MetricsMiddleware{}
	amw := &middlewares.AuthMiddleware{Secrets: nr.config.ServiceToServiceCredentials}

	securedSubRouter := nr.router.PathPrefix(nr.urlPrefix).Subrouter()
	securedSubRouter.Use(logger.AccessLoggerMiddleware,
		mmw.RecordHTTPMetrics,
		amw.Authenticate)

	securedSubRouter.HandleFunc("/notification", nr.handleNotification()).Methods(http.MethodPost)
}

func (nr *NotificationReceiver) handleNotification() http.HandlerFunc {

	return func(w http.ResponseWriter, req *http.Request) {

		principal, _ := middlewares.GetPrincipal(req.Context())
		requestId := request_id.GetReqID(req.Context())
		log := logger.Log.WithFields(logrus.Fields{
			"principal_realm": principal.GetRealm(),
			"request_id":      requestId})

		var notification domain.LifecycleNotification

		body := http.MaxBytesReader(w, req.Body, 1048576)

		if err := decodeJSON(body, &notification); err != nil {
			errMsg := "Unable to process json input"
			log.WithFields(logrus.Fields{"error": err}).Debug(errMsg)
			errorResponse := errorResponse{Title: errMsg,
				Status: http.StatusBadRequest,
				Detail: err.Error()}
			writeJSONResponse(w, errorResponse.Status, errorResponse)
			return
		}

		log.WithFields(logrus.Fields{"realm": notification.RealmID, "category": notification.Category}).Info("Received a lifecycle notification")

		nr.dispatcher.Route(req.Context(), &notification)

		writeJSONResponse(w, http.StatusAccepted, nil)
	}
}
