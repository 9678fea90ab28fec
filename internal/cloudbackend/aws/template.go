package aws

import (
	"fmt"

	"github.com/alphauslabs/elastic-blast-go/internal/config"
)

// elasticBlastImage is the container image every submitted job runs;
// it bundles the BLAST+ binaries and the worker entrypoint that fetches
// its batch, runs the search, and uploads results.
const elasticBlastImage = "public.ecr.aws/ncbi-elastic-blast/elastic-blast:latest"

// computeEnvironmentTemplate renders a minimal CloudFormation template
// for a managed EC2 compute environment and job queue sized from cfg.
func computeEnvironmentTemplate(cfg *config.Config) string {
	machineType := cfg.Cluster.MachineType
	if machineType == "" {
		machineType = "optimal"
	}
	return fmt.Sprintf(`{
  "Resources": {
    "ComputeEnvironment": {
      "Type": "AWS::Batch::ComputeEnvironment",
      "Properties": {
        "ComputeEnvironmentName": "%s-ce",
        "Type": "MANAGED",
        "ComputeResources": {
          "Type": "%s",
          "MinvCpus": 0,
          "MaxvCpus": %d,
          "DesiredvCpus": 0,
          "InstanceTypes": ["%s"]
        },
        "ServiceRole": {"Ref": "AWS::NoValue"}
      }
    },
    "JobQueue": {
      "Type": "AWS::Batch::JobQueue",
      "Properties": {
        "JobQueueName": "%s-queue",
        "Priority": 1,
        "ComputeEnvironmentOrder": [
          {"Order": 1, "ComputeEnvironment": {"Ref": "ComputeEnvironment"}}
        ]
      }
    }
  }
}`, cfg.Cluster.Name, provisioningModel(cfg), cfg.Cluster.NumNodes*cfg.Cluster.NumCPUs, machineType, cfg.Cluster.Name)
}

func provisioningModel(cfg *config.Config) string {
	if cfg.Cluster.Preemptible {
		return "SPOT"
	}
	return "EC2"
}

// memoryMiB converts a MemoryStr-formatted limit ("20G") to mebibytes
// for AWS Batch's ContainerProperties.Memory, which is always MiB.
func memoryMiB(limit string) int64 {
	mem, err := config.MemoryStr(limit)
	if err != nil {
		return 4096
	}
	return int64(mem.AsGB() * 1024)
}
