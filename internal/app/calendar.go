package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"landing-service/internal/store"
)

const (
	oauthStateTTL     = 10 * time.Minute
	oauthStateSubject = "calendar-connect"
)

var ErrCalendarNotConnected = errors.New("google calendar not connected")

// GoogleCalendar mirrors confirmed demos into a Google Calendar once an
// admin has connected an account through the OAuth flow.
type GoogleCalendar struct {
	OAuth      *oauth2.Config
	CalendarID string
	Store      store.Store
	// StateKey signs the OAuth state parameter.
	StateKey []byte
	// ClientOptions are appended when building the API client.
	ClientOptions []option.ClientOption
	Logger        *zap.Logger
}

// CalendarEvent represents a Google Calendar event
type CalendarEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location,omitempty"`
	Status      string    `json:"status"`
	Creator     string    `json:"creator,omitempty"`
}

func NewGoogleCalendar(clientID, clientSecret, redirectURL, calendarID string, st store.Store, stateKey []byte, logger *zap.Logger) *GoogleCalendar {
	if calendarID == "" {
		calendarID = "primary"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleCalendar{
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{gcal.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
		CalendarID: calendarID,
		Store:      st,
		StateKey:   stateKey,
		Logger:     logger,
	}
}

// AuthURL returns the consent URL and the signed state it carries.
func (g *GoogleCalendar) AuthURL() (string, string, error) {
	now := time.Now()
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   oauthStateSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(oauthStateTTL)),
	}).SignedString(g.StateKey)
	if err != nil {
		return "", "", fmt.Errorf("sign oauth state: %w", err)
	}
	return g.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), state, nil
}

func (g *GoogleCalendar) verifyState(state string) error {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(state, claims, func(token *jwt.Token) (interface{}, error) {
		return g.StateKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithSubject(oauthStateSubject))
	return err
}

// Connect exchanges an authorization code and stores the resulting token.
func (g *GoogleCalendar) Connect(ctx context.Context, state, code string) error {
	if err := g.verifyState(state); err != nil {
		return fmt.Errorf("invalid oauth state: %w", err)
	}
	token, err := g.OAuth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}
	return g.Store.SaveCalendarToken(ctx, token)
}

func (g *GoogleCalendar) service(ctx context.Context) (*gcal.Service, error) {
	token, err := g.Store.LoadCalendarToken(ctx)
	if errors.Is(err, store.ErrNoToken) {
		return nil, ErrCalendarNotConnected
	}
	if err != nil {
		return nil, err
	}
	opts := append([]option.ClientOption{option.WithHTTPClient(g.OAuth.Client(ctx, token))}, g.ClientOptions...)
	return gcal.NewService(ctx, opts...)
}

// InsertLead creates the demo event and returns its ID.
func (g *GoogleCalendar) InsertLead(ctx context.Context, l store.Lead) (string, error) {
	srv, err := g.service(ctx)
	if err != nil {
		return "", err
	}
	name := l.FirstName + " " + l.LastName
	ev := &gcal.Event{
		Summary:     fmt.Sprintf("Demo: %s (%s)", name, l.Company),
		Description: fmt.Sprintf("Email: %s\nPhone: %s\nLead: %s", l.Email, l.Phone, l.ID),
		Start:       &gcal.EventDateTime{DateTime: l.StartAtUTC.UTC().Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: l.EndAtUTC.UTC().Format(time.RFC3339)},
		Attendees:   []*gcal.EventAttendee{{Email: l.Email, DisplayName: name}},
	}
	created, err := srv.Events.Insert(g.CalendarID, ev).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return created.Id, nil
}

// ListEvents returns events between timeMin and timeMax (RFC3339, either may be empty).
func (g *GoogleCalendar) ListEvents(ctx context.Context, timeMin, timeMax string) ([]CalendarEvent, error) {
	srv, err := g.service(ctx)
	if err != nil {
		return nil, err
	}
	eventsCall := srv.Events.List(g.CalendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250).
		Context(ctx)
	if timeMin != "" {
		eventsCall = eventsCall.TimeMin(timeMin)
	}
	if timeMax != "" {
		eventsCall = eventsCall.TimeMax(timeMax)
	}
	events, err := eventsCall.Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	out := make([]CalendarEvent, 0, len(events.Items))
	for _, item := range events.Items {
		event := CalendarEvent{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Location:    item.Location,
			Status:      item.Status,
			StartTime:   eventTime(item.Start),
			EndTime:     eventTime(item.End),
		}
		if item.Creator != nil {
			event.Creator = item.Creator.Email
		}
		out = append(out, event)
	}
	return out, nil
}

func eventTime(t *gcal.EventDateTime) time.Time {
	if t == nil {
		return time.Time{}
	}
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return parsed
		}
	}
	if t.Date != "" {
		if parsed, err := time.Parse("2006-01-02", t.Date); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// GET /api/admin/calendar/auth
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if a.calendar == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}
	url, state, err := a.calendar.AuthURL()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"auth_url": url,
		"state":    state,
	})
}

// GET /oauth2callback?code=&state=
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.calendar == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}
	if err := a.calendar.Connect(c.Request.Context(), c.Query("state"), code); err != nil {
		a.log.Warn("calendar connect failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to connect calendar"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Authorization successful"})
}

// GET /api/admin/calendar/events?time_min=RFC3339&time_max=RFC3339
func (a *App) GoogleCalendarEventsHandler(c *gin.Context) {
	if a.calendar == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}
	events, err := a.calendar.ListEvents(c.Request.Context(), c.Query("time_min"), c.Query("time_max"))
	if errors.Is(err, ErrCalendarNotConnected) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

// syncLead pushes a stored lead to the connected calendar. Failures are logged
// and never affect the booking.
func (a *App) syncLead(l store.Lead) {
	if a.calendar == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	eventID, err := a.calendar.InsertLead(ctx, l)
	if errors.Is(err, ErrCalendarNotConnected) {
		a.log.Debug("calendar not connected, skipping sync", zap.String("lead_id", l.ID))
		return
	}
	if err != nil {
		a.log.Warn("calendar sync failed", zap.String("lead_id", l.ID), zap.Error(err))
		return
	}
	if err := a.store.SetCalendarEventID(ctx, l.ID, eventID); err != nil {
		a.log.Warn("store calendar event id", zap.String("lead_id", l.ID), zap.Error(err))
	}
}
