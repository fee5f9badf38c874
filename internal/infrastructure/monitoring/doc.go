/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the desktop
backend, tracking HTTP requests, window transitions, process lifecycles,
launches and the WebSocket event stream.

# Features

- HTTP request metrics (latency, throughput, size)
- Window metrics (open count, transitions, animation wall time, busy rejections)
- Process metrics (running, started, terminated by reason)
- Launch metrics (outcome per app, duration)
- Session and registry metrics
- WebSocket connection metrics

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewLaunchTimer(metrics, "terminal")
	// ... launch ...
	timer.Stop(monitoring.OutcomeStarted)

A nil *Metrics is a valid recorder that discards everything.

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
