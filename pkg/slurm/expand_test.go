package slurm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandPattern(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		jobID    string
		jobName  string
		nodeList string
		want     string
	}{
		{
			name:     "job id and name",
			path:     "slurm-%j-%x.out",
			jobID:    "123_4",
			jobName:  "train",
			nodeList: "node01",
			want:     "slurm-123_4-train.out",
		},
		{
			name:     "array tokens with suffix",
			path:     "%A_%a.log",
			jobID:    "123_4",
			want:     "123_4.log",
		},
		{
			name:  "array tokens without suffix",
			path:  "%A_%a.log",
			jobID: "123",
			want:  "123_0.log",
		},
		{
			name:     "node token strips bracket range",
			path:     "out-%N.txt",
			jobID:    "9",
			nodeList: "gpu[01-04],gpu07",
			want:     "out-gpu.txt",
		},
		{
			name:  "node token without assignment",
			path:  "out-%N.txt",
			jobID: "9",
			want:  "out-" + PendingNodePlaceholder + ".txt",
		},
		{
			name:  "task id always zero",
			path:  "task-%t.out",
			jobID: "55",
			want:  "task-0.out",
		},
		{
			name:  "literal percent",
			path:  "100%%.out",
			jobID: "1",
			want:  "100%.out",
		},
		{
			name:  "every occurrence replaced",
			path:  "%j/%j-%j.out",
			jobID: "7",
			want:  "7/7-7.out",
		},
		{
			name:  "unknown token kept verbatim",
			path:  "file-%q.out",
			jobID: "7",
			want:  "file-%q.out",
		},
		{name: "empty passes through", path: "", jobID: "1", want: ""},
		{name: "N/A passes through", path: "N/A", jobID: "1", want: "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandPattern(tt.path, tt.jobID, tt.jobName, tt.nodeList)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandPatternUser(t *testing.T) {
	got := ExpandPattern("%u.out", "1", "", "")
	assert.Equal(t, currentUserName()+".out", got)
	assert.False(t, strings.Contains(got, "%"))
}
