package slurm

import (
	"os/user"
	"strings"
)

// PendingNodePlaceholder substitutes for %N when the job has not been
// assigned a node yet.
const PendingNodePlaceholder = "PENDING_NODE"

// ExpandPattern expands Slurm filename placeholder tokens in an output
// path template using job metadata:
//
//	%j  job id            %x  job name
//	%u  user name         %N  first node of the node list
//	%A  array master id   %a  array task index (0 when absent)
//	%t  task id (always 0) %%  literal percent
//
// Expansion is literal text substitution applied to every occurrence.
// Empty input and the literal "N/A" pass through untouched.
func ExpandPattern(path, jobID, jobName, nodeList string) string {
	if path == "" || path == "N/A" {
		return path
	}

	var b strings.Builder
	b.Grow(len(path))
	for i := 0; i < len(path); i++ {
		if path[i] != '%' || i+1 == len(path) {
			b.WriteByte(path[i])
			continue
		}
		i++
		switch path[i] {
		case 'j':
			b.WriteString(jobID)
		case 'x':
			b.WriteString(jobName)
		case 'u':
			b.WriteString(currentUserName())
		case 'N':
			b.WriteString(firstNode(nodeList))
		case 'A':
			b.WriteString(arrayMasterID(jobID))
		case 'a':
			b.WriteString(arrayTaskIndex(jobID))
		case 't':
			// Per-task ids are not tracked; the task id is always 0.
			b.WriteByte('0')
		case '%':
			b.WriteByte('%')
		default:
			// Unknown token: keep it verbatim for the scheduler.
			b.WriteByte('%')
			b.WriteByte(path[i])
		}
	}
	return b.String()
}

// arrayMasterID returns the portion of jobID before the first "_", or
// jobID itself when there is no array suffix.
func arrayMasterID(jobID string) string {
	if i := strings.IndexByte(jobID, '_'); i >= 0 {
		return jobID[:i]
	}
	return jobID
}

// arrayTaskIndex returns the portion of jobID after the first "_", or
// "0" when there is no array suffix.
func arrayTaskIndex(jobID string) string {
	if i := strings.IndexByte(jobID, '_'); i >= 0 {
		return jobID[i+1:]
	}
	return "0"
}

// firstNode extracts the first hostname token from a Slurm node list,
// stripping any bracketed range suffix ("node[01-04]" -> "node").
func firstNode(nodeList string) string {
	list := strings.TrimSpace(nodeList)
	if list == "" || list == "N/A" || list == "(null)" {
		return PendingNodePlaceholder
	}
	node := list
	if i := strings.IndexByte(node, ','); i >= 0 {
		node = node[:i]
	}
	if i := strings.IndexByte(node, '['); i >= 0 {
		node = node[:i]
	}
	if node == "" {
		return PendingNodePlaceholder
	}
	return node
}

func currentUserName() string {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return "user"
	}
	return u.Username
}
