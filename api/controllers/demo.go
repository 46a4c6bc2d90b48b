package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/angelmondragon/filmex-backend/api/responses"
	"github.com/angelmondragon/filmex-backend/api/validators"
	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
)

type upstreamClient interface {
	Get(ctx context.Context, endpoint string, dest any) error
	Post(ctx context.Context, endpoint string, body, dest any) error
}

type demoPost struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type createDemoPostRequest struct {
	UserID int    `json:"userId" validate:"required,min=1"`
	Title  string `json:"title" validate:"required,max=200"`
	Body   string `json:"body" validate:"max=2000"`
}

// DemoPosts proxies the upstream posts API. ?id=N fetches a single post.
func DemoPosts(client upstreamClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		id, err := validators.ParseQueryInt(r, "id", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if id > 0 {
			var post demoPost
			if err := client.Get(r.Context(), fmt.Sprintf("/posts/%d", id), &post); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, post)
			return
		}

		var posts []demoPost
		if err := client.Get(r.Context(), "/posts", &posts); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, posts)
	}
}

func DemoCreatePost(client upstreamClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upstream client unavailable"))
			return
		}

		var body createDemoPostRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var created demoPost
		if err := client.Post(r.Context(), "/posts", body, &created); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}
