package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/identity-sync/scim-connector/internal/config"
	"github.com/identity-sync/scim-connector/internal/domain"
	"github.com/identity-sync/scim-connector/internal/middlewares"
	"github.com/identity-sync/scim-connector/internal/platform/logger"

	"github.com/gorilla/mux"
)

const (
	TOKEN_HEADER_CLIENT_NAME = middlewares.PSKClientIdHeader
	TOKEN_HEADER_REALM_NAME  = middlewares.PSKRealmHeader
	TOKEN_HEADER_PSK_NAME    = middlewares.PSKHeader
	URL_BASE_PATH            = "/api/scim-connector/v1"
	NOTIFICATION_ENDPOINT    = URL_BASE_PATH + "/notification"
)

// MockDispatcher records every routed notification.
type MockDispatcher struct {
	routedNotifications []*domain.LifecycleNotification
}

func (md *MockDispatcher) Route(ctx context.Context, notification *domain.LifecycleNotification) {
	md.routedNotifications = append(md.routedNotifications, notification)
}

func init() {
	logger.InitLogger()
}

var _ = Describe("NotificationReceiver", func() {

	var (
		nr         *NotificationReceiver
		dispatcher *MockDispatcher
	)

	BeforeEach(func() {
		apiMux := mux.NewRouter()
		cfg := config.GetConfig()
		cfg.ServiceToServiceCredentials["test_client_1"] = "12345"

		dispatcher = &MockDispatcher{}

		nr = NewNotificationReceiver(dispatcher, apiMux, URL_BASE_PATH, cfg)
		nr.Routes()
	})

	makeRequest := func(postBody string, addAuthHeaders bool) *httptest.ResponseRecorder {
		req, err := http.NewRequest("POST", NOTIFICATION_ENDPOINT, strings.NewReader(postBody))
		Expect(err).NotTo(HaveOccurred())

		if addAuthHeaders {
			req.Header.Add(TOKEN_HEADER_CLIENT_NAME, "test_client_1")
			req.Header.Add(TOKEN_HEADER_REALM_NAME, "tenant-1")
			req.Header.Add(TOKEN_HEADER_PSK_NAME, "12345")
		}

		rr := httptest.NewRecorder()
		nr.router.ServeHTTP(rr, req)
		return rr
	}

	Describe("Posting a lifecycle notification", func() {
		Context("With a valid pre shared key", func() {
			It("Should accept a well formed notification", func() {

				postBody := "{\"realm_id\": \"tenant-1\", \"category\": \"user\", \"event_kind\": \"register\", \"user_id\": \"u-100\"}"

				rr := makeRequest(postBody, true)

				Expect(rr.Code).To(Equal(http.StatusAccepted))
				Expect(dispatcher.routedNotifications).To(HaveLen(1))
				Expect(dispatcher.routedNotifications[0].RealmID).To(Equal(domain.RealmID("tenant-1")))
				Expect(dispatcher.routedNotifications[0].EventKind).To(Equal(domain.UserEventRegister))
			})

			It("Should accept a notification with a snapshot", func() {

				postBody := "{\"realm_id\": \"tenant-1\", \"category\": \"user\", \"event_kind\": \"update_profile\", \"user_id\": \"u-100\", \"snapshot\": {\"username\": \"fred\", \"email\": \"fred@flintstone.com\", \"enabled\": true}}"

				rr := makeRequest(postBody, true)

				Expect(rr.Code).To(Equal(http.StatusAccepted))
				Expect(dispatcher.routedNotifications).To(HaveLen(1))
				Expect(dispatcher.routedNotifications[0].Snapshot).NotTo(BeNil())
				Expect(dispatcher.routedNotifications[0].Snapshot.Username).To(Equal("fred"))
			})

			It("Should reject a notification with malformed json", func() {

				postBody := "{\"realm_id\" = \"tenant-1\", \"category\": \"user\"}"

				rr := makeRequest(postBody, true)

				Expect(rr.Code).To(Equal(http.StatusBadRequest))
				Expect(dispatcher.routedNotifications).To(BeEmpty())
			})

			It("Should reject a notification with missing required fields", func() {

				postBody := "{\"event_kind\": \"register\", \"user_id\": \"u-100\"}"

				rr := makeRequest(postBody, true)

				Expect(rr.Code).To(Equal(http.StatusBadRequest))
				Expect(dispatcher.routedNotifications).To(BeEmpty())
			})

			It("Should reject a request body containing multiple json objects", func() {

				postBody := "{\"realm_id\": \"tenant-1\", \"category\": \"user\"}{\"realm_id\": \"tenant-2\", \"category\": \"user\"}"

				rr := makeRequest(postBody, true)

				Expect(rr.Code).To(Equal(http.StatusBadRequest))
				Expect(dispatcher.routedNotifications).To(BeEmpty())
			})
		})

		Context("Without an identity header or pre shared key", func() {
			It("Should reject the notification", func() {

				postBody := "{\"realm_id\": \"tenant-1\", \"category\": \"user\", \"event_kind\": \"register\", \"user_id\": \"u-100\"}"

				rr := makeRequest(postBody, false)

				Expect(rr.Code).To(Equal(http.StatusUnauthorized))
				Expect(dispatcher.routedNotifications).To(BeEmpty())
			})
		})

		Context("With an invalid pre shared key", func() {
			It("Should reject the notification", func() {

				postBody := "{\"realm_id\": \"tenant-1\", \"category\": \"user\", \"event_kind\": \"register\", \"user_id\": \"u-100\"}"

				req, err := http.NewRequest("POST", NOTIFICATION_ENDPOINT, strings.NewReader(postBody))
				Expect(err).NotTo(HaveOccurred())

				req.Header.Add(TOKEN_HEADER_CLIENT_NAME, "test_client_1")
				req.Header.Add(TOKEN_HEADER_REALM_NAME, "tenant-1")
				req.Header.Add(TOKEN_HEADER_PSK_NAME, "wrong-psk")

				rr := httptest.NewRecorder()
				nr.router.ServeHTTP(rr, req)

				Expect(rr.Code).To(Equal(http.StatusUnauthorized))
				Expect(dispatcher.routedNotifications).To(BeEmpty())
			})
		})

		Context("With an unknown client id", func() {
			It("Should reject the notification", func() {

				postBody := "{\"realm_id\": \"tenant-1\", \"category\": \"user\", \"event_kind\": \"register\", \"user_id\": \"u-100\"}"

				req, err := http.NewRequest("POST", NOTIFICATION_ENDPOINT, strings.NewReader(postBody))
				Expect(err).NotTo(HaveOccurred())

				req.Header.Add(TOKEN_HEADER_CLIENT_NAME, "no_such_client")
				req.Header.Add(TOKEN_HEADER_REALM_NAME, "tenant-1")
				req.Header.Add(TOKEN_HEADER_PSK_NAME, "12345")

				rr := httptest.NewRecorder()
				nr.router.ServeHTTP(rr, req)

				Expect(rr.Code).To(Equal(http.StatusUnauthorized))
				Expect(dispatcher.routedNotifications).To(BeEmpty())
			})
		})
	})
})
