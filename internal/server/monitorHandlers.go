package server

import (
	"context"
	"net/http"
)

// monitorRun triggers a monitoring pass outside the regular interval and returns its summary.
func (s Server) monitorRun() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("monitorRun: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		tid := getTraceContext(r.Context()).traceID
		s.Logger.Infof("monitorRun: Run requested by UserID: %s, TraceID: %s", uc.user.ID, tid)

		// the pass outlives a disconnecting client
		sum, err := s.Monitor.Run(context.WithoutCancel(r.Context()))
		if err != nil {
			s.Logger.Errorf("monitorRun: Run failed, RunID: %s, err: %v, TraceID: %s", sum.RunID, err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		status := http.StatusOK
		if !sum.LeaseHeld {
			status = http.StatusConflict
		}
		s.writeJsonResponse(w, sum, status)
	}
}
