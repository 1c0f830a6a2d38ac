package itest

import (
	"net/http"
	"testing"
	"time"
)

func TestEvents_ITest(t *testing.T) {
	for _, b := range backendsFromEnv(t) {
		t.Run(string(b), func(t *testing.T) {
			srv := newTestServer(t, b)
			adminHandle, adminPass := srv.bootstrapAdmin(t)
			adminToken := srv.login(t, adminHandle, adminPass)

			var interestID string
			{
				status, body, _ := srv.doJSON(t, http.MethodPost, "/admin/interests", adminToken, map[string]any{"name": srv.name("Wine")})
				requireStatus(t, status, body, http.StatusCreated)
				interestID = mustUnmarshal[struct {
					Interest struct {
						ID string `json:"id"`
					} `json:"interest"`
				}](t, body).Interest.ID
			}

			var eventID string
			{
				status, body, _ := srv.doJSON(t, http.MethodPost, "/admin/events", adminToken, map[string]any{
					"title":       "Wine tasting",
					"description": "Bring **friends**.",
					"startsAt":    time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339),
					"city":        "Sofia",
					"interestIds": []string{interestID},
					"capacity":    1,
					"price":       "15.50",
				})
				requireStatus(t, status, body, http.StatusCreated)
				eventID = mustUnmarshal[struct {
					Event struct {
						ID string `json:"id"`
					} `json:"event"`
				}](t, body).Event.ID
			}

			handle := srv.name("bea")
			{
				status, body, _ := srv.doJSON(t, http.MethodPost, "/auth/register", "", map[string]any{
					"handle":          handle,
					"firstName":       "Bea",
					"lastName":        "Koleva",
					"email":           handle + "@example.com",
					"age":             22,
					"city":            "Sofia",
					"password":        "bea-pass",
					"confirmPassword": "bea-pass",
					"studies":         true,
					"educationPlace":  "Sofia University",
				})
				requireStatus(t, status, body, http.StatusCreated)
				id := mustUnmarshal[struct {
					Member struct {
						ID string `json:"id"`
					} `json:"member"`
				}](t, body).Member.ID
				status, body, _ = srv.doJSON(t, http.MethodPost, "/admin/members/"+id+"/approve", adminToken, nil)
				requireStatus(t, status, body, http.StatusOK)
			}
			token := srv.login(t, handle, "bea-pass")

			{
				status, body, _ := srv.doJSON(t, http.MethodGet, "/events/"+eventID, token, nil)
				requireErrorCode(t, status, body, http.StatusForbidden, "QUESTIONNAIRE_REQUIRED")
			}
			{
				status, body, _ := srv.doJSON(t, http.MethodPost, "/members/me/questionnaire", token, map[string]any{
					"fullName":       "Bea Koleva",
					"city":           "Sofia",
					"interestIds":    []string{interestID},
					"about":          "Student",
					"whyJoin":        "Meet people",
					"referralSource": "friend",
				})
				requireStatus(t, status, body, http.StatusCreated)
			}

			{
				status, body, _ := srv.doJSON(t, http.MethodGet, "/events?city=sofia&interestId="+interestID, token, nil)
				requireStatus(t, status, body, http.StatusOK)
				list := mustUnmarshal[struct {
					Events []struct {
						ID string `json:"id"`
					} `json:"events"`
				}](t, body)
				if len(list.Events) != 1 || list.Events[0].ID != eventID {
					t.Fatalf("events=%+v want [%s]", list.Events, eventID)
				}
			}

			var registrationID string
			{
				status, body, _ := srv.doJSON(t, http.MethodPost, "/events/"+eventID+"/registrations", token, map[string]any{})
				requireStatus(t, status, body, http.StatusCreated)
				registrationID = mustUnmarshal[struct {
					Registration struct {
						ID string `json:"id"`
					} `json:"registration"`
				}](t, body).Registration.ID
			}
			{
				status, body, _ := srv.doJSON(t, http.MethodPost, "/admin/registrations/"+registrationID+"/approve", adminToken, nil)
				requireStatus(t, status, body, http.StatusOK)
			}
			{
				status, body, _ := srv.doJSON(t, http.MethodGet, "/events/"+eventID, token, nil)
				requireStatus(t, status, body, http.StatusOK)
				got := mustUnmarshal[struct {
					Event struct {
						FreeSpots      int    `json:"freeSpots"`
						Price          string `json:"price"`
						MyRegistration *struct {
							Status string `json:"status"`
						} `json:"myRegistration"`
					} `json:"event"`
				}](t, body)
				if got.Event.FreeSpots != 0 || got.Event.Price != "15.50" || got.Event.MyRegistration == nil || got.Event.MyRegistration.Status != "approved" {
					t.Fatalf("event=%+v body=%s", got.Event, string(body))
				}
			}
			{
				status, body, _ := srv.doJSON(t, http.MethodGet, "/members/me/events", token, nil)
				requireStatus(t, status, body, http.StatusOK)
				mine := mustUnmarshal[struct {
					Upcoming []struct {
						ID string `json:"id"`
					} `json:"upcoming"`
				}](t, body)
				if len(mine.Upcoming) != 1 || mine.Upcoming[0].ID != eventID {
					t.Fatalf("upcoming=%+v", mine.Upcoming)
				}
			}
		})
	}
}
