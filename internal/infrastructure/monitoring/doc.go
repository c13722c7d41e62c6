/*
Package monitoring provides metrics collection for the shell.

# Overview

This package implements Prometheus-based metrics for the backend process
lifecycle and for the optional admin server. Every Metrics value owns its
own registry; nothing is registered globally.

# Metrics

  - handyshell_backend_operations_total{operation,result}
  - handyshell_backend_operation_duration_seconds{operation}
  - handyshell_backend_running
  - handyshell_admin_requests_total{method,path,status}
  - handyshell_admin_request_duration_seconds{method,path}
  - handyshell_uptime_seconds
  - Go runtime and process collectors

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.RecordOperation("spawn", monitoring.ResultSuccess, time.Since(start))
	metrics.SetBackendRunning(true)
*/
package monitoring
