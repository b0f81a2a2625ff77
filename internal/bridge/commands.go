package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/blazecut/blazecut/internal/types"
	"github.com/blazecut/blazecut/internal/usecase"
)

const (
	CmdAnalyzeVideo          = "analyze_video"
	CmdExtractKeyFrames      = "extract_key_frames"
	CmdGenerateThumbnail     = "generate_thumbnail"
	CmdCheckAppDataDirectory = "check_app_data_directory"
	CmdCleanupTempFiles      = "cleanup_temp_files"
)

type commandFunc func(ctx context.Context, args []byte) (any, error)

type pathArgs struct {
	Path string `json:"path"`
}

type keyframesArgs struct {
	Path    string              `json:"path"`
	Count   *int                `json:"count"`
	Options *types.FrameOptions `json:"options"`
}

type cleanupArgs struct {
	Dir string `json:"dir"`
}

func (s *Server) commandTable() map[string]commandFunc {
	return map[string]commandFunc{
		CmdAnalyzeVideo: func(ctx context.Context, raw []byte) (any, error) {
			var a pathArgs
			if err := decodeArgs(raw, &a); err != nil {
				return nil, err
			}
			md, err := s.cmds.AnalyzeVideo(ctx, a.Path)
			if err != nil {
				return nil, err
			}
			return md, nil
		},
		CmdExtractKeyFrames: func(ctx context.Context, raw []byte) (any, error) {
			var a keyframesArgs
			if err := decodeArgs(raw, &a); err != nil {
				return nil, err
			}
			count := s.cmds.DefaultCount()
			if a.Count != nil {
				count = *a.Count
			}
			var opts types.FrameOptions
			if a.Options != nil {
				opts = *a.Options
			}
			paths, err := s.cmds.ExtractKeyFrames(ctx, a.Path, count, opts)
			if err != nil {
				return nil, err
			}
			return paths, nil
		},
		CmdGenerateThumbnail: func(ctx context.Context, raw []byte) (any, error) {
			var a pathArgs
			if err := decodeArgs(raw, &a); err != nil {
				return nil, err
			}
			out, err := s.cmds.GenerateThumbnail(ctx, a.Path)
			if err != nil {
				return nil, err
			}
			return out, nil
		},
		CmdCheckAppDataDirectory: func(ctx context.Context, raw []byte) (any, error) {
			if err := decodeArgs(raw, &struct{}{}); err != nil {
				return nil, err
			}
			dir, err := s.cmds.CheckAppDataDirectory(ctx)
			if err != nil {
				return nil, err
			}
			return dir, nil
		},
		CmdCleanupTempFiles: func(ctx context.Context, raw []byte) (any, error) {
			var a cleanupArgs
			if err := decodeArgs(raw, &a); err != nil {
				return nil, err
			}
			return nil, s.cmds.CleanupTempFiles(ctx, a.Dir)
		},
	}
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["command"]
	fn, ok := s.handlers[name]
	if !ok {
		writeJSONError(w, fmt.Sprintf("unknown command %q", name), http.StatusNotFound)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeJSONError(w, fmt.Sprintf("read request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(raw) > maxBodyBytes {
		writeJSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	ctx := r.Context()
	if s.opts.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CommandTimeout)
		defer cancel()
	}

	result, err := fn(ctx, raw)
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Str("command", name).Msg("command returned error")
		writeJSONError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, result)
}

// decodeArgs treats an empty body as "no arguments". Unknown fields are
// rejected so a misspelled argument is not silently ignored.
func decodeArgs(raw []byte, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode arguments: %v", usecase.ErrInvalidArgument, err)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrInvalidArgument), errors.Is(err, usecase.ErrOutsideTempRoot):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrToolMissing):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
