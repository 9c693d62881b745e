// Package server exposes a loaded walk graph over HTTP for inspection and
// nearest-node lookups.
package server

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fasthttp/router"
	"github.com/mailru/easyjson"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/striide/walkgraph/kv"
	"github.com/striide/walkgraph/navgraph"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const MaxBodySize = 32 * 1000 * 1000 // 32MB

var meter = otel.Meter("github.com/striide/walkgraph/server")

func Run(ctx context.Context, address string, graph *navgraph.Graph) error {
	log := slog.Default()

	s, err := newServer(graph)
	if err != nil {
		return err
	}

	server := &fasthttp.Server{
		ReadTimeout:        time.Second,
		MaxRequestBodySize: MaxBodySize,
		Handler:            s.router().Handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "address", address)
		if err := server.ListenAndServe(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return server.ShutdownWithContext(shutdownCtx)
}

type server struct {
	graph *navgraph.Graph

	// neighbor responses by node index
	neighborsCache *kv.XMap[int, []byte]

	metricNearestCallCount   metric.Int64Counter
	metricNeighborsCallCount metric.Int64Counter
	metricPointsResolved     metric.Int64Counter
}

func newServer(graph *navgraph.Graph) (*server, error) {
	nearestCount, err := meter.Int64Counter("http_nearest_call_total")
	if err != nil {
		return nil, err
	}
	neighborsCount, err := meter.Int64Counter("http_neighbors_call_total")
	if err != nil {
		return nil, err
	}
	resolved, err := meter.Int64Counter("points_resolved_total")
	if err != nil {
		return nil, err
	}

	return &server{
		graph:          graph,
		neighborsCache: kv.NewXMap[int, []byte](),

		metricNearestCallCount:   nearestCount,
		metricNeighborsCallCount: neighborsCount,
		metricPointsResolved:     resolved,
	}, nil
}

func (s *server) router() *router.Router {
	r := router.New()
	r.GET("/graph/stats", s.StatsHandler)
	r.GET("/graph/nearest/{lon}/{lat}", s.NearestHandler)
	r.POST("/graph/nearest", s.NearestMultipleHandler)
	r.GET("/graph/neighbors/{lon}/{lat}", s.NeighborsHandler)
	r.Handle(http.MethodGet, "/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	return r
}

var reqPointsPool = sync.Pool{
	New: func() any {
		return &[]orb.Point{}
	},
}

func (s *server) StatsHandler(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, statsResponse(s.graph.Stats()))
}

func (s *server) NearestHandler(ctx *fasthttp.RequestCtx) {
	s.metricNearestCallCount.Add(ctx, 1)

	lon, lat, ok := pathPoint(ctx)
	if !ok {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		return
	}

	node, ok := s.graph.Nearest(lon, lat)
	if !ok {
		ctx.Response.SetStatusCode(http.StatusNoContent)
		return
	}
	s.metricPointsResolved.Add(ctx, 1)

	writeJSON(ctx, nodeResponse(node))
}

func (s *server) NearestMultipleHandler(ctx *fasthttp.RequestCtx) {
	s.metricNearestCallCount.Add(ctx, 1)

	req := reqPointsPool.Get().(*[]orb.Point)
	defer reqPointsPool.Put(req)

	if err := unmarshalPointsList(ctx.Request.Body(), req); err != nil {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		ctx.Response.SetBodyString("failed to parse request: " + err.Error())
		return
	}

	res := make(nearestList, len(*req))
	resolved := 0
	for i, p := range *req {
		if node, ok := s.graph.Nearest(p[0], p[1]); ok {
			res[i] = &node
			resolved++
		}
	}
	s.metricPointsResolved.Add(ctx, int64(resolved))

	writeJSON(ctx, res)
}

func (s *server) NeighborsHandler(ctx *fasthttp.RequestCtx) {
	s.metricNeighborsCallCount.Add(ctx, 1)

	lon, lat, ok := pathPoint(ctx)
	if !ok {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		return
	}

	node, ok := s.graph.Nearest(lon, lat)
	if !ok {
		ctx.Response.SetStatusCode(http.StatusNoContent)
		return
	}
	s.metricPointsResolved.Add(ctx, 1)

	// Only the neighbor list is cached; the node distance depends on the query.
	neighbors, _ := s.neighborsCache.LoadOrCompute(node.Index, func() []byte {
		data, _ := easyjson.Marshal(neighborList(s.graph.NodeNeighbors(node.Index)))
		return data
	})

	writeJSON(ctx, neighborsResponse{Node: node, Neighbors: neighbors})
}

func pathPoint(ctx *fasthttp.RequestCtx) (lon, lat float64, ok bool) {
	lonS, _ := ctx.UserValue("lon").(string)
	latS, _ := ctx.UserValue("lat").(string)

	lon, ok = parseCoordinate(lonS)
	if !ok {
		return 0, 0, false
	}
	lat, ok = parseCoordinate(latS)
	if !ok {
		return 0, 0, false
	}
	return lon, lat, true
}

// parseCoordinate rejects NaN and infinities, which ParseFloat accepts.
func parseCoordinate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func writeJSON(ctx *fasthttp.RequestCtx, v easyjson.Marshaler) {
	data, err := easyjson.Marshal(v)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString("failed to marshal response")
		return
	}

	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.SetBody(data)
}
