// Package meterlens analyzes smart meter consumption exported as
// MyEnergyData XML.
//
// # Architecture
//
// The service is structured into several key packages:
//   - parser: MyEnergyData XML to 15-minute samples, with timezone detection
//   - stats: consumption statistics over a sample series
//   - digest: plain-text summary and chat prompt assembly
//   - timezone: the fixed-offset display zones
//   - service: parsing and summarizing with logging, metrics and validation
//   - source: loading a document from a file or URL into the current dataset
//   - scheduler: periodic dataset reloads
//   - grpc: gRPC service with the JSON codec, middleware and health checks
//   - api: JSON REST API
//   - config: YAML configuration with environment overrides
//
// Key Features
//
//   - Tolerant parsing:
//     Elements are found by namespace, then local name, then raw tag, so
//     exports with unusual prefixes still parse. Malformed periods and
//     points are skipped and counted.
//
//   - Statistics:
//     Quartiles, outliers, hourly and daily profiles, energy flow by band,
//     load duration curve, hourly box plots and a heatmap.
//
//   - Display zones:
//     Samples are kept in UTC and shifted into one of the fixed display
//     zones before grouping by hour and day.
//
// Example Usage
//
//	client := server.NewAnalysisClient(conn)
//	resp, err := client.Summarize(ctx, &server.SummarizeRequest{
//	    Document:        xmlText,
//	    DisplayTimezone: "CET",
//	})
//	fmt.Println(resp.Report.Digest)
//
// For more information about specific packages, see their respective
// documentation.
package meterlens
