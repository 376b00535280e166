package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"webasset/utils"
)

// HealthCheck reports liveness plus database reachability and basic system
// load.
func HealthCheck(c *gin.Context, client *mongo.Client) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		dbStatus = "unreachable"
	}

	system := gin.H{}
	if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
		system["cpu_percent"] = percentages[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		system["memory_percent"] = vm.UsedPercent
	}

	status := "healthy"
	if dbStatus != "ok" {
		status = "degraded"
	}

	utils.Success(c, gin.H{
		"status":   status,
		"database": dbStatus,
		"system":   system,
	})
}
