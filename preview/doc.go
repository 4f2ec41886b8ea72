// Package preview streams partial node output to live listeners over
// Server-Sent Events.
//
// A Hub routes events to listeners by glob pattern on the listener id.
// Listeners of a node use ids of the form "node:<id>:<suffix>", so an
// event for node n reaches every listener matching "node:n:*".
//
//	hub := preview.NewHub()
//	go hub.Run()
//	eng := engine.New(reg, cm, engine.WithPreview(hub))
//	router.GET("/v1/preview/:node", func(c *gin.Context) {
//	    preview.ServeSSE(hub, c.Writer, c.Request, c.Param("node"))
//	})
//
// Publishing never blocks the caller: when a listener or the hub is
// saturated the event is dropped.
package preview
